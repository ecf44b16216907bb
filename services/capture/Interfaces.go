// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package capture

import (
	"fmt"
	"sort"

	"github.com/Netcracker/qubership-netdiag-agent/exception"
	"github.com/Netcracker/qubership-netdiag-agent/view"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"
)

// LocalInterfaces
// lists capture device names, sorted
func LocalInterfaces(lister DeviceLister) ([]string, error) {
	devices, err := lister()
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(devices))
	for _, d := range devices {
		ret = append(ret, d.Name)
	}
	sort.Strings(ret)
	return ret, nil
}

// LocalInterfaceDetails
// lists capture devices with their descriptions and addresses
func LocalInterfaceDetails(lister DeviceLister) ([]view.InterfaceDetails, error) {
	devices, err := lister()
	if err != nil {
		return nil, err
	}
	ret := make([]view.InterfaceDetails, 0, len(devices))
	for _, d := range devices {
		item := view.InterfaceDetails{Name: d.Name, Description: d.Description}
		for _, a := range d.Addresses {
			if a.IP == nil {
				continue
			}
			item.Addresses = append(item.Addresses, a.IP.String())
		}
		ret = append(ret, item)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

// findDevice
// ensures the device is known to libpcap
func findDevice(lister DeviceLister, device string) error {
	devices, err := lister()
	if err != nil {
		return fmt.Errorf("%w: unable to list devices: %v", exception.ErrInvalidInterface, err)
	}
	for _, d := range devices {
		if d.Name == device {
			return nil
		}
	}
	log.Debugf("device '%s' is not among %d capture devices", device, len(devices))
	return fmt.Errorf("%w: no such device '%s'", exception.ErrInvalidInterface, device)
}

// pcapDevices
// default device lister
func pcapDevices() ([]pcap.Interface, error) {
	return pcap.FindAllDevs()
}
