//go:build !linux

package socketcan

import (
	"errors"

	"github.com/muurk/fisinject/internal/can"
)

func init() {
	can.Register(DriverName, func(cfg can.Config) (can.Bus, error) {
		return nil, errors.New("socketcan is only available on linux")
	})
}
