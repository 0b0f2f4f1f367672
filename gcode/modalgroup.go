package gcode

type ModalGroup byte

// Modal groups of the printer dialect understood by the VM.
const (
	ModalGroupNone = iota
	ModalGroupNonModal
	ModalGroupMotion
	ModalGroupDistanceMode
	ModalGroupExtruderMode
	ModalGroupUnits
	ModalGroupFeedRate
)

func (w Word) ModalGroup() ModalGroup {
	switch w.W {
	case 'G':
		switch w.Arg {
		case 4, 28, 92:
			return ModalGroupNonModal
		case 0, 1:
			return ModalGroupMotion
		case 90, 91:
			return ModalGroupDistanceMode
		case 20, 21:
			return ModalGroupUnits
		}
	case 'M':
		switch w.Arg {
		case 82, 83:
			return ModalGroupExtruderMode
		}
	case 'F':
		return ModalGroupFeedRate
	}

	return ModalGroupNone
}
