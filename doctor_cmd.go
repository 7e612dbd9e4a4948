package main

import (
	"os"

	"github.com/spf13/cobra"

	"tapkey/doctor"
	"tapkey/log"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the keyboard backend, the media key and the action backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			code := doctor.Run(cmd.Context(), doctor.Options{
				Backend:       s.Backend,
				Key:           s.MediaKey,
				ActionBackend: s.ActionBackend,
				Ranges:        s.Ranges(),
				Threshold:     s.Threshold(),
				Out:           cmd.OutOrStdout(),
			})
			log.Close()
			os.Exit(code)
			return nil
		},
	}
}
