package browser

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/go-rod/rod/lib/launcher"
)

// EnsureChromium resolves a usable Chromium binary: an explicit path wins,
// then a system installation, then a build downloaded through the rod
// launcher. installDeps additionally installs the OS packages Chromium needs
// on bare Linux hosts before downloading.
func EnsureChromium(ctx context.Context, binPath string, revision int, installDeps bool) (string, error) {
	if binPath != "" {
		return binPath, nil
	}

	if path, found := launcher.LookPath(); found {
		return path, nil
	}

	if installDeps {
		if err := installChromiumDependencies(ctx); err != nil {
			return "", err
		}
	}

	downloader := launcher.NewBrowser()
	downloader.Context = ctx
	if revision > 0 {
		downloader.Revision = revision
	}

	path, err := downloader.Get()
	if err != nil {
		return "", fmt.Errorf("failed to download chromium: %w", err)
	}

	return path, nil
}

// installChromiumDependencies installs OS packages required by Chromium.
func installChromiumDependencies(ctx context.Context) error {
	if runtime.GOOS != "linux" {
		return nil
	}

	if path, _ := exec.LookPath("apt-get"); path != "" {
		if err := runCommand(ctx, path, "update"); err != nil {
			return err
		}
		args := append([]string{"install", "-y", "--no-install-recommends"}, chromiumDepsApt...)
		return runCommand(ctx, path, args...)
	}

	if path, _ := exec.LookPath("dnf"); path != "" {
		args := append([]string{"install", "-y"}, chromiumDepsDnf...)
		return runCommand(ctx, path, args...)
	}

	if path, _ := exec.LookPath("apk"); path != "" {
		args := append([]string{"add", "--no-cache"}, chromiumDepsApk...)
		return runCommand(ctx, path, args...)
	}

	return fmt.Errorf("no supported package manager found for chromium dependencies")
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v failed: %w\n%s", name, args, err, out.String())
	}
	return nil
}

var chromiumDepsApt = []string{
	"ca-certificates",
	"fonts-liberation",
	"libasound2",
	"libatk-bridge2.0-0",
	"libatk1.0-0",
	"libcups2",
	"libdbus-1-3",
	"libdrm2",
	"libgbm1",
	"libgtk-3-0",
	"libnspr4",
	"libnss3",
	"libx11-xcb1",
	"libxcomposite1",
	"libxdamage1",
	"libxfixes3",
	"libxrandr2",
	"libxshmfence1",
	"libxss1",
	"libxtst6",
	"libpango-1.0-0",
	"libpangocairo-1.0-0",
	"libxkbcommon0",
}

var chromiumDepsDnf = []string{
	"alsa-lib",
	"atk",
	"cups-libs",
	"gtk3",
	"libX11",
	"libXcomposite",
	"libXdamage",
	"libXrandr",
	"libXfixes",
	"libX11-xcb",
	"libxcb",
	"libxkbcommon",
	"libxshmfence",
	"nss",
	"nspr",
	"pango",
	"mesa-libgbm",
	"libdrm",
}

var chromiumDepsApk = []string{
	"ca-certificates",
	"freetype",
	"harfbuzz",
	"nss",
	"ttf-freefont",
	"alsa-lib",
	"atk",
	"at-spi2-atk",
	"cups-libs",
	"libxcomposite",
	"libxdamage",
	"libxrandr",
	"libxfixes",
	"libxkbcommon",
	"libx11",
	"libxrender",
	"libxext",
	"libxcb",
	"libdrm",
	"mesa-gbm",
	"gtk+3.0",
	"pango",
	"cairo",
	"gdk-pixbuf",
	"fontconfig",
	"libstdc++",
	"libgcc",
}
