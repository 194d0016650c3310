package cmd

import "gober/internal/tui"

func runTUI() error {
	svc, _, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	return tui.Run(svc)
}
