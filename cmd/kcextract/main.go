// Command kcextract extracts a decrypted 64-bit kernelcache and its optional
// KPP image from a firmware blob.
package main

import (
	"os"

	"github.com/golang/glog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
	glog.Flush()
}
