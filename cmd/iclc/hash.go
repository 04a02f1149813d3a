package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ICL-System/ICL-Runtime/pkg/icl"
)

func newHashCmd(newAppFromFlags func() *app, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print a contract's semantic hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newAppFromFlags()
			source, err := readSource(args[0])
			if err != nil {
				*exitCode = exitInternalError
				return err
			}

			if cached, ok := readHashCache(a.cfg.CacheDir, source); ok {
				printHash(a, cached)
				return nil
			}

			hash, err := icl.SemanticHash(source)
			if err != nil {
				*exitCode = exitValidationFailed
				printParseFailure(a, err)
				return nil
			}
			writeHashCache(a.cfg.CacheDir, source, hash)
			printHash(a, hash)
			return nil
		},
	}
}

func printHash(a *app, hash string) {
	if a.jsonMode {
		a.printf("{\"semantic_hash\":%q}\n", hash)
		return
	}
	a.printf("%s\n", hash)
}

// sourceDigest fingerprints source text for use as a cache key, independent
// of the semantic hash it will eventually map to.
func sourceDigest(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func hashCachePath(cacheDir, source string) (string, bool) {
	if cacheDir == "" {
		return "", false
	}
	return filepath.Join(cacheDir, sourceDigest(source)+".hash"), true
}

func readHashCache(cacheDir, source string) (string, bool) {
	path, ok := hashCachePath(cacheDir, source)
	if !ok {
		return "", false
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(contents), true
}

func writeHashCache(cacheDir, source, hash string) {
	path, ok := hashCachePath(cacheDir, source)
	if !ok {
		return
	}
	_ = os.MkdirAll(cacheDir, 0o755)
	_ = os.WriteFile(path, []byte(hash), 0o644)
}
