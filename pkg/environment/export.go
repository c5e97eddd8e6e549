package environment

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	apperrors "github.com/climabench/climabench/pkg/errors"
)

// ExportTree materializes the tree of a repository at a specific commit into
// destDir. Any existing content at destDir is replaced, so a re-run for the
// same date never leaves stale files behind.
func ExportTree(repoPath, hash, destDir string) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to open repository %s", repoPath), err, nil)
	}
	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to load commit %s in %s", hash, repoPath), err, nil)
	}
	tree, err := commit.Tree()
	if err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to load tree of %s", hash), err, nil)
	}

	if err := os.RemoveAll(destDir); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to clear %s", destDir), err, nil)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to create %s", destDir), err, nil)
	}

	files := tree.Files()
	defer files.Close()
	err = files.ForEach(func(f *object.File) error {
		return exportFile(f, destDir)
	})
	if err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to export %s at %s", repoPath, hash), err, nil)
	}
	return nil
}

func exportFile(f *object.File, destDir string) error {
	dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	mode := os.FileMode(0644)
	if f.Mode == filemode.Executable {
		mode = 0755
	}
	reader, err := f.Reader()
	if err != nil {
		return err
	}
	defer reader.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
