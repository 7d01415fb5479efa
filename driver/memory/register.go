package memory

import (
	"github.com/gobeaver/sourcekit"
	"github.com/spf13/afero"
)

func init() {
	sourcekit.RegisterDriver("memory", func(cfg *sourcekit.Config) (afero.Fs, error) {
		return New(), nil
	})
}
