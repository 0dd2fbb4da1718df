package convert

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"premail/common"
	"premail/config"
	"premail/links"
	"premail/state"
)

// buildOutputPath returns constructed output file path/name based on various
// input parameters. It uses either default naming scheme or user-defined
// template and takes into account whether to preserve source directory
// structure on the output. Every produced file of a single document shares
// the same name and differs by extension only.
func buildOutputPath(title, src, dst, ext string, kind common.Action, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, ext, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(Values{Title: title, SourceFile: sourceName(src), Kind: kind.String()}, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, ext, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs || links.IsAbsoluteURI(src) {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// sourceName returns source file name without extension. For remote
// documents last path segment is used, host name when there is none.
func sourceName(src string) string {
	if links.IsAbsoluteURI(src) {
		u, err := url.Parse(src)
		if err != nil {
			return "index"
		}
		base := path.Base(u.Path)
		if base == "/" || base == "." {
			return u.Hostname()
		}
		return strings.TrimSuffix(base, path.Ext(base))
	}
	return strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
}

func buildDefaultFileName(src, ext string, env *state.LocalEnv) string {
	baseName := sourceName(src)
	if env.Cfg.Document.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + ext
}

func expandOutputNameTemplate(values Values, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, values)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName, ext string, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + ext
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(name string) []string {
	name = strings.TrimSuffix(name, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(name); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
