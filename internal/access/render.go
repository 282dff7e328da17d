package access

import (
	"strconv"
	"strings"

	"github.com/rbining/fablock-core/internal/device"
)

// Protocol selects the payload richness of the rendered config text. The
// resolution algorithm is version-independent; v1 merely omits the timing
// fields older controller firmware does not understand.
type Protocol int

const (
	// ProtocolV1 renders tool lines as id,pin,toolType,name.
	ProtocolV1 Protocol = 1

	// ProtocolV2 renders tool lines as id,pin,toolType,time,idleState,name.
	ProtocolV2 Protocol = 2
)

// RenderConfig renders the line-oriented device configuration consumed by
// controllers: device name, background image URL, backup backend URL, then
// one line per tool in the order given (callers pass tools in pin order).
func RenderConfig(dev *device.Device, tools []device.Tool, version Protocol) string {
	var b strings.Builder
	b.WriteString(dev.Name)
	b.WriteByte('\n')
	b.WriteString(dev.BackgroundURL)
	b.WriteByte('\n')
	b.WriteString(dev.BackupBackendURL)
	b.WriteByte('\n')

	for _, tool := range tools {
		b.WriteString(strconv.FormatInt(tool.ID, 10))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(tool.Pin))
		b.WriteByte(',')
		b.WriteString(string(tool.Type))
		b.WriteByte(',')
		if version >= ProtocolV2 {
			b.WriteString(strconv.FormatInt(tool.TimeMs, 10))
			b.WriteByte(',')
			b.WriteString(string(tool.IdleState))
			b.WriteByte(',')
		}
		b.WriteString(tool.Name)
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderPermittedIDs renders a permitted-tool result as one tool id per
// line, preserving the resolver's pin ordering.
func RenderPermittedIDs(ids []int64) string {
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('\n')
	}
	return b.String()
}
