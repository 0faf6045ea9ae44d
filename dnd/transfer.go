package dnd

import (
	"sort"

	"github.com/bytedance/sonic"

	"github.com/alexalex89/task-management/domain"
)

const (
	MIMEJSON = "application/json"
	MIMEHTML = "text/html"

	EffectMove = "move"
)

// DataTransfer carries the drag payload from the source to the drop target,
// keyed by format.
type DataTransfer struct {
	EffectAllowed string
	DropEffect    string

	data map[string]string
}

func NewDataTransfer() *DataTransfer {
	return &DataTransfer{data: make(map[string]string)}
}

// SetData stores value under format, replacing what was there.
func (d *DataTransfer) SetData(format, value string) {
	if d.data == nil {
		d.data = make(map[string]string)
	}
	d.data[format] = value
}

// GetData returns the value for format or the empty string.
func (d *DataTransfer) GetData(format string) string {
	if d == nil {
		return ""
	}
	return d.data[format]
}

// Types lists the formats present, sorted.
func (d *DataTransfer) Types() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.data))
	for k := range d.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (d *DataTransfer) ClearData() {
	if d != nil {
		d.data = make(map[string]string)
	}
}

// Payload identifies the dragged task and the list it was picked up from.
type Payload struct {
	TaskID         string          `json:"taskId"`
	SourceCategory domain.Category `json:"sourceCategory"`
}

// WritePayload fills dt the way a list item does on drag start.
func WritePayload(dt *DataTransfer, p Payload) error {
	data, err := sonic.ConfigStd.Marshal(p)
	if err != nil {
		return err
	}
	dt.EffectAllowed = EffectMove
	dt.SetData(MIMEHTML, p.TaskID)
	dt.SetData(MIMEJSON, string(data))
	return nil
}
