package sealfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/absfs/absfs"
)

// VaultFS is the part of absfs.FileSystem a Vault needs.
type VaultFS interface {
	Open(name string) (absfs.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error)
	Remove(name string) error
}

// Vault seals and opens files stored on an absfs filesystem. Input files are
// read completely before the pipeline runs and output is only written once
// the pipeline has succeeded.
type Vault struct {
	fs       VaultFS
	pipeline *Pipeline
}

// NewVault creates a Vault over fs
func NewVault(fs VaultFS, pipeline *Pipeline) *Vault {
	return &Vault{fs: fs, pipeline: pipeline}
}

// Seal encrypts the file at src and writes the container next to it as
// src + EncryptedSuffix. It returns the container path.
func (v *Vault) Seal(src, password string) (string, error) {
	data, err := v.readFile(src)
	if err != nil {
		return "", err
	}

	container, err := v.pipeline.Encrypt(path.Base(src), data, password)
	if err != nil {
		return "", err
	}

	dst := src + EncryptedSuffix
	if err := v.writeFile(dst, container); err != nil {
		return "", err
	}
	return dst, nil
}

// Open decrypts the container at src and writes the recovered file into dir
// under its recovered base name. It returns the written path.
func (v *Vault) Open(src, dir, password string) (string, error) {
	container, err := v.readFile(src)
	if err != nil {
		return "", err
	}

	name, data, err := v.pipeline.Decrypt(container, password)
	if err != nil {
		return "", err
	}
	defer SecureZero(data)

	dst := path.Join(dir, name)
	if err := v.writeFile(dst, data); err != nil {
		return "", err
	}
	return dst, nil
}

// VaultResult is the outcome of sealing or opening one file in a batch.
type VaultResult struct {
	Source string
	Path   string
	Err    error
}

// SealAll seals every file in srcs on the pipeline's worker pool. Results are
// in input order and a failure does not stop the remaining files.
func (v *Vault) SealAll(ctx context.Context, srcs []string, password string) []VaultResult {
	return v.batch(ctx, srcs, password, v.pipeline.EncryptBatch, func(src string, res BatchResult) string {
		return src + EncryptedSuffix
	})
}

// OpenAll opens every container in srcs into dir on the pipeline's worker
// pool. Results are in input order.
func (v *Vault) OpenAll(ctx context.Context, srcs []string, dir, password string) []VaultResult {
	return v.batch(ctx, srcs, password, v.pipeline.DecryptBatch, func(src string, res BatchResult) string {
		return path.Join(dir, res.Name)
	})
}

func (v *Vault) batch(
	ctx context.Context,
	srcs []string,
	password string,
	run func(context.Context, []BatchItem) []BatchResult,
	dest func(string, BatchResult) string,
) []VaultResult {
	results := make([]VaultResult, len(srcs))
	items := make([]BatchItem, 0, len(srcs))
	index := make([]int, 0, len(srcs))

	for i, src := range srcs {
		results[i].Source = src
		data, err := v.readFile(src)
		if err != nil {
			results[i].Err = err
			continue
		}
		items = append(items, BatchItem{Name: path.Base(src), Data: data, Password: password})
		index = append(index, i)
	}

	for j, res := range run(ctx, items) {
		i := index[j]
		if res.Err != nil {
			results[i].Err = res.Err
			continue
		}
		dst := dest(srcs[i], res)
		if err := v.writeFile(dst, res.Data); err != nil {
			results[i].Err = err
		} else {
			results[i].Path = dst
		}
		SecureZero(res.Data)
	}
	return results
}

func (v *Vault) readFile(name string) ([]byte, error) {
	f, err := v.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// writeFile writes data to name, removing a partially written file on error.
func (v *Vault) writeFile(name string, data []byte) error {
	f, err := v.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		v.fs.Remove(name)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		v.fs.Remove(name)
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
