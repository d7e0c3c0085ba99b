package legacy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kovidgoyal/imaging"

	"epasset/internal/argb"
	"epasset/internal/epconfig"
	"epasset/internal/fileutil"
	"epasset/internal/logging"
)

const (
	legacyConfigName = "epconfig.txt"
	loopVideoName    = "loop.mp4"
	legacyLogoName   = "logo.argb"
	convertedLogo    = "logo.png"
	newConfigName    = "epconfig.json"

	defaultLogoWidth  = 256
	defaultLogoHeight = 256
)

// Config is the parsed legacy text configuration. Missing or malformed
// files degrade to the zero version and black; parsing never fails.
type Config struct {
	Version int
	Color   string
}

// DefaultConfig is what parsing falls back to.
func DefaultConfig() Config {
	return Config{Version: 0, Color: "#000000"}
}

// Result records one folder conversion. Results are immutable once
// returned and accumulate in batch order.
type Result struct {
	Success        bool
	SourcePath     string
	DestPath       string
	Message        string
	FilesConverted []string
}

// Progress is invoked before each folder conversion with the 1-based index.
type Progress func(current, total int, name string)

// Migrator upgrades asset folders produced by the previous toolchain into
// the current schema. Folder conversions are independent; one folder's
// failure never aborts a batch.
type Migrator struct {
	logger *slog.Logger
}

func NewMigrator(logger *slog.Logger) *Migrator {
	return &Migrator{logger: logging.NewComponentLogger(logger, "legacy-migrator")}
}

// Detect reports whether folder holds a legacy asset: both the text config
// and the loop video directly inside it. No recursion.
func (m *Migrator) Detect(folder string) bool {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, name := range []string{legacyConfigName, loopVideoName} {
		if _, err := os.Stat(filepath.Join(folder, name)); err != nil {
			return false
		}
	}
	return true
}

// ParseConfig reads the folder's epconfig.txt. The file holds whitespace
// separated tokens "<version> <color>"; the color is bare hex, either
// 6-digit RGB or 8-digit ARGB whose alpha pair is dropped. Every failure
// path returns DefaultConfig; a malformed file is treated like an absent
// one, with only the log telling them apart.
func (m *Migrator) ParseConfig(folder string) Config {
	cfg := DefaultConfig()
	path := filepath.Join(folder, legacyConfigName)

	data, err := os.ReadFile(path)
	if err != nil {
		m.logger.Warn("legacy config unreadable", logging.String("path", path), logging.Error(err))
		return cfg
	}

	tokens := strings.Fields(strings.TrimSpace(string(data)))
	if len(tokens) >= 1 {
		version, err := strconv.Atoi(tokens[0])
		if err != nil {
			m.logger.Warn("legacy config malformed, using defaults",
				logging.String("path", path), logging.String("token", tokens[0]))
			return DefaultConfig()
		}
		cfg.Version = version
	}
	if len(tokens) >= 2 {
		hex := tokens[1]
		if len(hex) == 8 {
			// ARGB on disk; the alpha pair is discarded.
			hex = hex[2:]
		}
		cfg.Color = "#" + hex
	}

	m.logger.Debug("parsed legacy config",
		logging.String("folder", folder),
		logging.Int("version", cfg.Version),
		logging.String("color", cfg.Color),
	)
	return cfg
}

// convertLogo decodes the raw packed logo and writes it as PNG. The packed
// file carries no dimensions; 256x256 is assumed first, then the size
// heuristic runs on the actual byte count.
func (m *Migrator) convertLogo(src, dst string) bool {
	data, err := os.ReadFile(src)
	if err != nil {
		m.logger.Warn("legacy logo unreadable", logging.String("path", src), logging.Error(err))
		return false
	}

	width, height := defaultLogoWidth, defaultLogoHeight
	if len(data) != width*height*4 {
		width, height, err = argb.DetectDimensions(len(data))
		if err != nil {
			m.logger.Error("logo dimensions undetectable",
				logging.String("path", src), logging.Int("bytes", len(data)))
			return false
		}
		m.logger.Info("detected logo dimensions",
			logging.Int("width", width), logging.Int("height", height))
	}

	buf, err := argb.Decode(data, width, height)
	if err != nil {
		m.logger.Error("logo decode failed", logging.String("path", src), logging.Error(err))
		return false
	}
	img, err := buf.ToImage()
	if err != nil {
		m.logger.Error("logo decode failed", logging.String("path", src), logging.Error(err))
		return false
	}
	if err := imaging.Save(img, dst); err != nil {
		m.logger.Error("logo write failed", logging.String("path", dst), logging.Error(err))
		return false
	}
	m.logger.Info("converted logo", logging.String("path", dst))
	return true
}

func (m *Migrator) writeNewConfig(legacyCfg Config, folderName, dstDir string) bool {
	hasLogo := false
	if _, err := os.Stat(filepath.Join(dstDir, convertedLogo)); err == nil {
		hasLogo = true
	}

	cfg := epconfig.Config{
		Name:        folderName,
		Description: fmt.Sprintf("converted from legacy asset: %s", folderName),
		Loop:        epconfig.Loop{File: loopVideoName},
		Overlay: &epconfig.Overlay{
			Type: epconfig.OverlayTypeOperator,
			Operator: &epconfig.OperatorOptions{
				Name:  folderName,
				Color: legacyCfg.Color,
			},
		},
	}
	if hasLogo {
		cfg.Overlay.Operator.Logo = convertedLogo
		cfg.Icon = convertedLogo
	}

	path := filepath.Join(dstDir, newConfigName)
	if err := cfg.SaveToFile(path); err != nil {
		m.logger.Error("config write failed", logging.String("path", path), logging.Error(err))
		return false
	}
	m.logger.Info("wrote converted config", logging.String("path", path))
	return true
}

// ConvertFolder upgrades a single legacy folder into dst. Success means at
// least one file landed; a failed logo conversion alongside a written
// config is partial success, not a hard failure.
func (m *Migrator) ConvertFolder(src, dst string) Result {
	folderName := filepath.Base(src)
	result := Result{SourcePath: src, DestPath: dst}

	if !m.Detect(src) {
		result.Message = "not a legacy asset folder"
		m.logger.Warn("skipping folder", logging.String("folder", folderName), logging.String("reason", result.Message))
		return result
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		result.Message = fmt.Sprintf("create destination: %v", err)
		m.logger.Error("conversion failed", logging.String("folder", folderName), logging.Error(err))
		return result
	}

	legacyCfg := m.ParseConfig(src)

	if logoSrc := filepath.Join(src, legacyLogoName); exists(logoSrc) {
		if m.convertLogo(logoSrc, filepath.Join(dst, convertedLogo)) {
			result.FilesConverted = append(result.FilesConverted, convertedLogo)
		}
	}

	loopSrc := filepath.Join(src, loopVideoName)
	loopDst := filepath.Join(dst, loopVideoName)
	if err := fileutil.CopyFilePreserving(loopSrc, loopDst); err != nil {
		m.logger.Error("loop video copy failed", logging.String("folder", folderName), logging.Error(err))
	} else {
		result.FilesConverted = append(result.FilesConverted, loopVideoName)
		m.logger.Info("copied loop video", logging.String("path", loopDst))
	}

	if m.writeNewConfig(legacyCfg, folderName, dst) {
		result.FilesConverted = append(result.FilesConverted, newConfigName)
	}

	result.Success = len(result.FilesConverted) > 0
	result.Message = fmt.Sprintf("converted %d files", len(result.FilesConverted))
	m.logger.Info("folder processed",
		logging.String("folder", folderName),
		logging.Bool("success", result.Success),
		logging.Int("files", len(result.FilesConverted)),
	)
	return result
}

// BatchConvert converts every legacy folder directly under srcRoot into a
// same-named folder under dstRoot. A missing source root or an empty scan
// returns an empty slice, not an error. Folders convert in directory
// listing order.
func (m *Migrator) BatchConvert(srcRoot, dstRoot string, onProgress Progress) []Result {
	info, err := os.Stat(srcRoot)
	if err != nil || !info.IsDir() {
		m.logger.Error("source root missing", logging.String("path", srcRoot))
		return nil
	}

	entries, err := os.ReadDir(srcRoot)
	if err != nil {
		m.logger.Error("source root unreadable", logging.String("path", srcRoot), logging.Error(err))
		return nil
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if m.Detect(filepath.Join(srcRoot, entry.Name())) {
			folders = append(folders, entry.Name())
		}
	}
	if len(folders) == 0 {
		m.logger.Warn("no legacy folders found", logging.String("path", srcRoot))
		return nil
	}
	m.logger.Info("legacy folders found", logging.Int("count", len(folders)))

	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		m.logger.Error("create destination root failed", logging.String("path", dstRoot), logging.Error(err))
		return nil
	}

	results := make([]Result, 0, len(folders))
	for i, name := range folders {
		if onProgress != nil {
			onProgress(i+1, len(folders), name)
		}
		results = append(results, m.ConvertFolder(filepath.Join(srcRoot, name), filepath.Join(dstRoot, name)))
	}
	return results
}

// Summary renders the aggregate line shown after a batch.
func Summary(results []Result) string {
	if len(results) == 0 {
		return "no folders converted"
	}
	succeeded := 0
	files := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		files += len(r.FilesConverted)
	}
	return fmt.Sprintf("%d/%d folders succeeded, %d files total", succeeded, len(results), files)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
