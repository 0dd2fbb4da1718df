package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"premail/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare opens debug report archive. When configured destination could not
// be created report goes to temporary directory.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entryKind int

const (
	// file is read when report is closed
	kindFile entryKind = iota
	// file copied at the time of a call
	kindSnapshot
	// content kept in memory
	kindData
)

func (k entryKind) String() string {
	switch k {
	case kindSnapshot:
		return "snapshot"
	case kindData:
		return "data"
	}
	return "file"
}

type entry struct {
	kind   entryKind
	origin string // where entry came from: file path or stylesheet location
	path   string // file to be archived, empty for data
	data   []byte
	stamp  time.Time
}

// Report accumulates what is necessary to reproduce a run: configuration,
// source documents with stylesheets they referenced, produced results,
// processing state and logs. Everything is written to zip archive on Close.
// NOTE: presently not to be used concurrently!
type Report struct {
	entries map[string]entry
	// scratch is temporary directory for snapshots, removed on Close
	scratch string
	file    *os.File
}

// Close writes report archive and removes snapshots.
func (r *Report) Close() error {
	if r == nil {
		// Ignore uninitialized cases to avoid checking in many places. This means no report has been requested.
		return nil
	}
	defer r.cleanup()
	if r.file == nil {
		return nil
	}
	defer r.file.Close()
	return r.finalize()
}

func (r *Report) cleanup() {
	if r.scratch != "" {
		_ = os.RemoveAll(r.scratch)
		r.scratch = ""
	}
}

// Name returns name of report archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store remembers file to be put in the report under name. File is read when
// report is closed, so it may still be written to in the meantime.
func (r *Report) Store(name, file string) {
	if r == nil {
		return
	}

	if old, exists := r.entries[name]; exists && old.origin != file {
		// Somewhere I do not know what I am doing.
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.origin, file))
	}

	e := entry{kind: kindFile, origin: file, path: file}
	if p, err := filepath.Abs(file); err == nil {
		e.path = p
	}
	r.entries[name] = e
}

// StoreData puts data in the report under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	if _, exists := r.entries[name]; exists {
		// Somewhere I do not know what I am doing.
		panic(fmt.Sprintf("Attempt to overwrite data in the report for [%s]", name))
	}
	r.entries[name] = entry{kind: kindData, data: data, stamp: time.Now()}
}

// StoreCopy copies regular file as it is at the time of a call and puts copy
// in the report. When name is already taken numeric suffix is added to it.
func (r *Report) StoreCopy(name, file string) error {
	if r == nil {
		return nil
	}

	src, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s to the report: not a regular file", file)
	}

	if r.scratch == "" {
		if r.scratch, err = os.MkdirTemp("", misc.GetAppName()+"-r-"); err != nil {
			return err
		}
	}
	dst, err := snapshot(r.scratch, src, info.ModTime())
	if err != nil {
		return err
	}
	r.entries[r.freeName(name)] = entry{kind: kindSnapshot, origin: file, path: dst, stamp: time.Now()}
	return nil
}

// StoreStylesheet puts stylesheet loaded while processing document in the
// report under "stylesheets/". Local files are copied, text of remote ones
// is kept as loaded. Every location is stored once.
func (r *Report) StoreStylesheet(location, text string) error {
	if r == nil {
		return nil
	}
	for _, e := range r.entries {
		if e.kind != kindFile && e.origin == location {
			return nil
		}
	}

	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return r.StoreCopy("stylesheets/"+CleanFileName(filepath.Base(location)), location)
	}

	base := path.Base(u.Path)
	if base == "/" || base == "." {
		base = "index.css"
	}
	name := r.freeName("stylesheets/" + CleanFileName(u.Hostname()) + "/" + CleanFileName(base))
	r.entries[name] = entry{kind: kindData, origin: location, data: []byte(text), stamp: time.Now()}
	return nil
}

// freeName returns name which is not yet used in the report: "a/b.css",
// "a/b-2.css", "a/b-3.css" and so on.
func (r *Report) freeName(name string) string {
	if _, exists := r.entries[name]; !exists {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, exists := r.entries[candidate]; !exists {
			return candidate
		}
	}
}

// snapshot copies src into dir keeping its modification time.
func snapshot(dir, src string, modTime time.Time) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, "*-"+filepath.Base(src))
	if err != nil {
		return "", err
	}
	dst := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

// finalize writes manifest followed by all stored entries in manifest order.
func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := prepareManifest(r.entries)
	if err := saveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.kind == kindData {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(e.path)
		if err != nil || !info.Mode().IsRegular() {
			// logs may never have been created
			continue
		}
		f, err := os.Open(e.path)
		if err != nil {
			return err
		}
		err = saveFile(arc, name, info.ModTime(), f)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()
	for _, name := range names {
		e := entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), e.kind, name, e.origin)
	}
	return names, buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
