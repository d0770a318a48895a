package kernelcache

import (
	"github.com/golang/glog"

	"github.com/yath/kcextract/internal/scan"
)

const (
	// kppSearchBase skips the primary header region.
	kppSearchBase = 0x2000
	// kppLookback is how far before the end marker the KPP Mach-O may start.
	kppLookback = 0x1000
)

var imageEndMagic = []byte("__IMAGEEND")

// FindKPP returns the raw KPP image that follows the kernelcache, or nil if
// there is none. The returned slice aliases data.
func FindKPP(data []byte) []byte {
	if len(data) <= kppSearchBase {
		return nil
	}

	e := scan.Index(data[kppSearchBase:], imageEndMagic)
	if e <= kppLookback {
		if e >= 0 {
			glog.V(2).Infof("__IMAGEEND at 0x%x is too close to the search base", kppSearchBase+e)
		}
		return nil
	}

	from := kppSearchBase + e - kppLookback
	m := scan.IndexFrom(data, machoMagic, from)
	if m < 0 {
		glog.V(2).Infof("__IMAGEEND at 0x%x without a Mach-O after 0x%x", kppSearchBase+e, from)
		return nil
	}

	glog.V(1).Infof("KPP Mach-O at 0x%x", m)
	return data[m:]
}
