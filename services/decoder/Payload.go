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

package decoder

import (
	"encoding/hex"
	"fmt"

	"github.com/Netcracker/qubership-netdiag-agent/view"
)

const (
	utf16Format     = "[UTF-16 encoded data] 0x%x"
	binaryFormat    = "[Binary data] 0x%x"
	corruptedFormat = "[Encoded/Corrupted text] 0x%x"
	truncatedFormat = "%s ...(%d more bytes)"
)

// RenderPayload
// makes a printable view of application data, at most limit bytes are rendered
// printable text is kept as is, anything else is hex encoded with a kind prefix
func RenderPayload(payload []byte, limit int) string {
	if len(payload) == 0 {
		return view.EmptyString
	}
	shown := payload
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	var ret string
	switch {
	case isPrintableText(shown):
		ret = string(shown)
	case hasUtf16Bom(shown):
		ret = fmt.Sprintf(utf16Format, shown)
	case hasControlBytes(shown):
		ret = fmt.Sprintf(binaryFormat, shown)
	default:
		ret = fmt.Sprintf(corruptedFormat, shown)
	}
	if len(shown) < len(payload) {
		ret = fmt.Sprintf(truncatedFormat, ret, len(payload)-len(shown))
	}
	return ret
}

// RenderRawData
// hex view of the whole frame
func RenderRawData(frame []byte) string {
	return hex.EncodeToString(frame)
}

// isPrintableText
// 7-bit printable characters and usual whitespace only
func isPrintableText(data []byte) bool {
	for _, b := range data {
		if b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

func hasUtf16Bom(data []byte) bool {
	return len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

// hasControlBytes
// control characters other than whitespace mean binary data
func hasControlBytes(data []byte) bool {
	for _, b := range data {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			return true
		}
	}
	return false
}
