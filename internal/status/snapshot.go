// internal/status/snapshot.go
package status

// Control is a read snapshot of the control words. It contains no
// logic and no memory of the past beyond current hardware state.
type Control struct {
	Trigger         uint16
	RaspberryStatus uint16
	PLCStatus       uint16
	ZanasiStatus    uint16
	ErrorCode       uint16
	SelectedBatch   uint16
}

// decodeControl maps the 9 control words (registers 1-9) into a
// snapshot. The slice must hold at least RegSelectedBatch words.
func decodeControl(regs []uint16) Control {
	return Control{
		Trigger:         regs[RegTrigger-1],
		RaspberryStatus: regs[RegRaspberryStatus-1],
		PLCStatus:       regs[RegPLCStatus-1],
		ZanasiStatus:    regs[RegZanasiStatus-1],
		ErrorCode:       regs[RegErrorCode-1],
		SelectedBatch:   regs[RegSelectedBatch-1],
	}
}
