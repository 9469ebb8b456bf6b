//go:build !cgo && !windows

package menu

import (
	"context"
	"errors"
)

type stubController struct{}

func newTrayController() trayController {
	return stubController{}
}

func (stubController) Run(context.Context, <-chan UpdatePayload, Actions) error {
	return errors.New("system tray is unavailable without cgo support")
}
