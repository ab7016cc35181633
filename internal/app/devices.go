// SPDX-License-Identifier: MIT
package app

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"lipsync/internal/audio"
	"lipsync/internal/tui"
)

// Devices lists the host's audio devices on out. With interactive set the
// user picks an input device in the terminal and the matching config
// snippet is printed instead.
func Devices(out io.Writer, interactive bool, fetch tui.FetchFunc) error {
	if fetch == nil {
		fetch = tui.HostFetch
	}

	if !interactive {
		devices, err := fetch()
		if err != nil {
			return err
		}
		audio.WriteDevices(out, devices)
		return nil
	}

	sel, ok, err := tui.StartDeviceListUI(fetch)
	if err != nil || !ok {
		return err
	}
	return WriteSelection(out, sel)
}

// WriteSelection prints sel as the audio section of a config file.
func WriteSelection(out io.Writer, sel tui.Selection) error {
	snippet := struct {
		Audio tui.Selection `yaml:"audio"`
	}{Audio: sel}

	fmt.Fprintln(out, "# Add to lipsync.yaml")
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(snippet); err != nil {
		return err
	}
	return enc.Close()
}
