package check

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gobeaver/sourcekit"
)

var (
	windowsPrefix = regexp.MustCompile(`^[A-Za-z]:\\(.*\\)?`)
	texBackup     = regexp.MustCompile(`(?i)(.+)\.(tex_|tex\.bak|tex~)$`)
	illegalChars  = regexp.MustCompile(`[^\w\+\-\=\,\.]`)
)

// FileNames fixes names the TeX build cannot cope with. In order it strips
// Windows drive and directory prefixes, warns about editor backups of TeX
// sources, replaces characters outside [A-Za-z0-9_+-.=,] and replaces a
// leading hyphen.
func FileNames() *Checker {
	return &Checker{
		Name: "file_names",
		Check: func(ws *sourcekit.Workspace, f *sourcekit.File) (*sourcekit.File, error) {
			if f.IsDirectory {
				return f, nil
			}

			if windowsPrefix.MatchString(f.Name()) {
				prev := f.Name()
				if err := renameTo(ws, f, windowsPrefix.ReplaceAllString(prev, "")); err != nil {
					return f, err
				}
				ws.AddWarning(f, "renamed", fmt.Sprintf("Renamed %s to %s", prev, f.Name()))
			}

			if !f.IsAncillary && texBackup.MatchString(f.Name()) {
				ws.AddWarning(f, "tex_backup_file", fmt.Sprintf(
					"File '%s' may be a backup file. Please inspect and remove extraneous backup files.", f.Name()))
			}

			if illegalChars.MatchString(f.Name()) {
				prev := f.Name()
				if err := renameTo(ws, f, illegalChars.ReplaceAllString(prev, "_")); err != nil {
					return f, err
				}
				ws.AddWarning(f, "illegal_characters",
					"We only accept file names containing the characters: a-z A-Z 0-9 _ + - . =")
				ws.AddWarning(f, "renamed", fmt.Sprintf("Renamed %s to %s", prev, f.Name()))
			}

			if strings.HasPrefix(f.Name(), "-") {
				prev := f.Name()
				if err := renameTo(ws, f, "_"+strings.TrimPrefix(prev, "-")); err != nil {
					return f, err
				}
				ws.AddWarning(f, "leading_hyphen", fmt.Sprintf(
					"We do not accept files starting with a hyphen. Renamed %s to %s.", prev, f.Name()))
			}
			return f, nil
		},
	}
}

// renameTo renames f within its directory.
func renameTo(ws *sourcekit.Workspace, f *sourcekit.File, name string) error {
	if name == "" {
		name = "_"
	}
	return ws.Rename(f, path.Join(f.Dir(), name))
}
