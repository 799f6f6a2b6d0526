package commands

import (
	"fmt"

	"github.com/wolfeidau/mapzip/pkg/archive"
)

type Globals struct {
	Debug   bool
	Version string
}

func methodFromName(name string) (uint16, error) {
	switch name {
	case "store":
		return archive.MethodStore, nil
	case "deflate":
		return archive.MethodDeflate, nil
	case "zstd":
		return archive.MethodZstd, nil
	case "xz":
		return archive.MethodXZ, nil
	default:
		return 0, fmt.Errorf("unknown compression method: %s", name)
	}
}

func methodName(method uint16) string {
	switch method {
	case archive.MethodStore:
		return "store"
	case archive.MethodDeflate:
		return "deflate"
	case archive.MethodZstd:
		return "zstd"
	case archive.MethodXZ:
		return "xz"
	default:
		return fmt.Sprintf("method(%d)", method)
	}
}
