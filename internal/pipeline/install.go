package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/bootglyph/internal/config"
	"github.com/alexisbeaulieu97/bootglyph/internal/esp"
	"github.com/alexisbeaulieu97/bootglyph/internal/loader"
	"github.com/alexisbeaulieu97/bootglyph/internal/manifest"
	"github.com/alexisbeaulieu97/bootglyph/internal/methods"
	"github.com/alexisbeaulieu97/bootglyph/pkg/errors"
)

// install copies the shipped files onto the ESP: the config file, the
// architecture-specific loader binary under its fixed installed name, and
// any images the config declares. It finishes by writing the install
// manifest. Installing over an existing install refreshes the files.
func (p *Pipeline) install(_ context.Context, e *esp.ESP) error {
	arch, err := p.resolveArch(e)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(e.InstallDir(), 0o755); err != nil {
		return fmt.Errorf("create install directory: %w", err)
	}

	cfgDst := filepath.Join(e.InstallDir(), config.FileName)
	if err := methods.CopyFile(filepath.Join(p.Session.SourceDir, config.FileName), cfgDst); err != nil {
		return fmt.Errorf("install config file: %w", err)
	}

	loaderSrc := filepath.Join(p.Session.SourceDir, "bootglyph-"+arch+".efi")
	if err := methods.CopyFile(loaderSrc, e.LoaderPath()); err != nil {
		return fmt.Errorf("install loader for %s: %w", arch, err)
	}

	p.installImages(e, cfgDst)

	m := manifest.Manifest{Version: p.Version, Arch: arch, InstalledAt: time.Now().UTC()}
	if err := manifest.Write(e.InstallDir(), m); err != nil {
		return fmt.Errorf("write install manifest: %w", err)
	}

	p.Log.WithFields(map[string]any{"dir": e.InstallDir(), "arch": arch}).Info("installed")
	return nil
}

// installImages copies the image files the config declares. Images are
// cosmetic, so a missing or uncopyable one is logged and skipped rather
// than failing the install.
func (p *Pipeline) installImages(e *esp.ESP, cfgPath string) {
	cfg, err := config.Parse(cfgPath)
	if err != nil {
		p.Log.Error(err, "installed config not parseable, skipping image install")
		return
	}
	for _, img := range cfg.Images {
		src := filepath.Join(p.Session.SourceDir, bootPathBase(img.Path))
		if err := methods.CopyFile(src, e.FilesystemPath(img.Path)); err != nil {
			p.Log.WithFields(map[string]any{"image": img.Path}).Error(err, "image not installed")
		}
	}
}

// resolveArch picks the loader architecture: an explicit override wins
// (with a warning when it contradicts the machine), otherwise the vendor
// loader's PE header decides. No detection and no override is an error.
func (p *Pipeline) resolveArch(e *esp.ESP) (string, error) {
	detected := loader.DetectArchitecture(e.VendorLoaderPath())

	if p.Session.ArchOverridden && p.Session.Arch != "" {
		if detected != "" && detected != p.Session.Arch {
			p.Log.WithFields(map[string]any{"requested": p.Session.Arch, "detected": detected}).
				Warn("requested architecture differs from the machine's vendor loader")
		}
		return p.Session.Arch, nil
	}
	if detected == "" {
		return "", errors.NewValidationError("arch",
			"loader architecture could not be detected; pass --arch", nil)
	}
	p.Session.Arch = detected
	return detected, nil
}

// disableAll reverts every installation method, whether or not it was
// active. Each Disable is idempotent, so this is the safe "make the
// machine boot the vendor loader again" composite.
func (p *Pipeline) disableAll(ctx context.Context, e *esp.ESP) error {
	return stderrors.Join(
		p.overwrite(e).Disable(ctx),
		p.bcdEntry(e).Disable(ctx),
		p.nvram(e).Disable(ctx),
	)
}

// uninstall reverts every method and then removes the install directory,
// manifest included. The vendor-loader backup lives outside the install
// directory and is already consumed by the overwrite Disable.
func (p *Pipeline) uninstall(ctx context.Context, e *esp.ESP) error {
	if err := p.disableAll(ctx, e); err != nil {
		return err
	}
	if err := os.RemoveAll(e.InstallDir()); err != nil {
		return fmt.Errorf("remove install directory: %w", err)
	}
	p.Log.WithFields(map[string]any{"dir": e.InstallDir()}).Info("uninstalled")
	return nil
}

// bootPathBase returns the filename component of an EFI boot path.
func bootPathBase(bootPath string) string {
	if i := strings.LastIndexByte(bootPath, '\\'); i >= 0 {
		return bootPath[i+1:]
	}
	return bootPath
}
