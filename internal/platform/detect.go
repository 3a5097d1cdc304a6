package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the host platform. OS and architecture come from the Go
// runtime; on Linux the distribution comes from gopsutil. A distribution that
// cannot be read leaves the distro fields and Variant empty.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	return detect(ctx, runtime.GOOS, runtime.GOARCH, host.PlatformInformationWithContext)
}

// platformInfoFunc matches host.PlatformInformationWithContext.
type platformInfoFunc func(ctx context.Context) (platform, family, version string, err error)

func detect(ctx context.Context, goos, goarch string, lookup platformInfoFunc) (*Info, error) {
	arch, err := normalizeArch(goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	releaseArch, _ := ReleaseArch(arch)

	info := &Info{
		OS:          goos,
		Arch:        arch,
		ReleaseArch: releaseArch,
	}

	if goos != "linux" {
		return info, nil
	}

	platform, family, version, err := lookup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform == "" {
		return info, nil
	}

	info.Platform = platform
	info.Family = mapFamily(family)
	info.Version = normalizePlatform(version)
	info.Variant = ReleaseVariant(platform, info.Version)
	return info, nil
}
