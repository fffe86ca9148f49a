// Package atomicwrite escribe archivos de forma atómica (tmp → fsync → rename),
// pensado para material de claves: nunca queda un archivo a medio escribir.
package atomicwrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrExists se devuelve cuando NoClobber está activo y el destino ya existe.
var ErrExists = errors.New("atomicwrite: destination already exists")

// Options ajusta WriteFile.
type Options struct {
	// NoClobber falla con ErrExists si path ya existe.
	NoClobber bool
	// DirPerm es el modo de los directorios creados (default 0755).
	DirPerm fs.FileMode
}

// WriteFile escribe data en path con permisos perm.
// El temporal se crea en el mismo directorio para que el rename sea atómico.
func WriteFile(path string, data []byte, perm fs.FileMode, opts Options) error {
	dirPerm := opts.DirPerm
	if dirPerm == 0 {
		dirPerm = 0o755
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	if opts.NoClobber {
		if _, err := os.Lstat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // no-op después del rename
	}()

	// perms antes de escribir: una clave privada nunca es legible por otros
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Windows: rename falla si el destino existe/está bloqueado
		if opts.NoClobber {
			return fmt.Errorf("rename: %w", err)
		}
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
