package main

import (
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gobeaver/sourcekit"
	"github.com/gobeaver/sourcekit/filetype"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type cmdClassify struct {
	Algorithm string `long:"checksum" default:"xxhash" choice:"xxhash" choice:"sha256" description:"Checksum algorithm"`
	Bytes     bool   `long:"bytes" description:"Print sizes in bytes rather than human readable units"`
	Args      struct {
		Paths []string `positional-arg-name:"path" required:"1"`
	} `positional-args:"yes"`
}

// classifiedFile is one row of classify output.
type classifiedFile struct {
	Path     string
	Result   filetype.Result
	Size     int64
	Checksum string
}

func (cmd *cmdClassify) Execute([]string) error {
	InitLog(Config.Log)
	InitMetrics(Config.Metrics)

	var rows, err = classifyPaths(afero.NewOsFs(), cmd.Args.Paths, sourcekit.ChecksumAlgorithm(cmd.Algorithm))
	if err != nil {
		return err
	}
	return writeClassified(os.Stdout, rows, cmd.Bytes)
}

// classifyPaths classifies each path of fsys, walking directories.
func classifyPaths(fsys afero.Fs, paths []string, algorithm sourcekit.ChecksumAlgorithm) ([]classifiedFile, error) {
	var rows []classifiedFile
	for _, root := range paths {
		err := afero.Walk(fsys, root, func(name string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			} else if fi.IsDir() {
				return nil
			}
			row, err := classifyOne(fsys, name, fi.Size(), algorithm)
			if err != nil {
				log.WithFields(log.Fields{"path": name, "err": err}).Warn("failed to classify file")
			}
			rows = append(rows, row)
			return nil
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "walk %s", root)
		}
	}
	return rows, nil
}

func classifyOne(fsys afero.Fs, name string, size int64, algorithm sourcekit.ChecksumAlgorithm) (classifiedFile, error) {
	var row = classifiedFile{Path: name, Size: size}

	var err error
	if row.Result, err = filetype.Classify(fsys, name); err != nil {
		return row, err
	}
	f, err := fsys.Open(name)
	if err != nil {
		return row, err
	}
	defer f.Close()

	row.Checksum, err = sourcekit.CalculateChecksum(f, algorithm)
	return row, err
}

func writeClassified(w io.Writer, rows []classifiedFile, bytes bool) error {
	var table = tablewriter.NewWriter(w)
	table.Header([]string{"Path", "Tag", "Type", "Format", "Size", "Checksum"})

	for _, r := range rows {
		var size = humanize.IBytes(uint64(r.Size))
		if bytes {
			size = strconv.FormatInt(r.Size, 10)
		}
		if err := table.Append([]string{
			r.Path,
			r.Result.Type.String(),
			r.Result.Type.Name(),
			r.Result.Format,
			size,
			r.Checksum,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
