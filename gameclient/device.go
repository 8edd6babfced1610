package gameclient

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"golang.org/x/text/language"

	"lytic-game-system/models"
)

// Version is stamped into the user agent; overridden at build time.
var Version = "dev"

// CaptureDeviceInfo snapshots the terminal environment once per session.
func CaptureDeviceInfo() models.DeviceInfo {
	w, h, err := term.GetSize(os.Stdout.Fd())
	if err != nil {
		w, h = 0, 0
	}
	return models.DeviceInfo{
		UserAgent:    fmt.Sprintf("lytic-codebreaker/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH),
		Language:     localeTag(),
		Timezone:     localTimezone(),
		ScreenWidth:  w,
		ScreenHeight: h,
		CapturedAt:   time.Now().UTC(),
	}
}

// localeTag turns LANG-style values ("en_GB.UTF-8") into BCP 47 ("en-GB").
func localeTag() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		tag, err := language.Parse(strings.ReplaceAll(v, "_", "-"))
		if err != nil {
			continue
		}
		return tag.String()
	}
	return language.AmericanEnglish.String()
}

func localTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if name := time.Local.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}
