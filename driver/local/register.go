package local

import (
	"github.com/gobeaver/sourcekit"
	"github.com/spf13/afero"
)

func init() {
	sourcekit.RegisterDriver("local", func(cfg *sourcekit.Config) (afero.Fs, error) {
		return New(cfg.LocalBasePath)
	})
}

var (
	_ afero.Fs           = (*FileSystem)(nil)
	_ sourcekit.CanWatch = (*FileSystem)(nil)
)
