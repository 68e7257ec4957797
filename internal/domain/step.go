package domain

import "fmt"

// Step is the menu position of a session
type Step int

const (
	// StepIdle - no file uploaded yet
	StepIdle Step = iota
	// StepMainMenu - category selection
	StepMainMenu
	// StepConvertMenu - format conversion options
	StepConvertMenu
	// StepCompressMenu - compression options
	StepCompressMenu
	// StepPDFMenu - PDF tools
	StepPDFMenu
	// StepZipMenu - archive tools
	StepZipMenu
	// StepCollectingPDFs - accumulating PDFs for a merge
	StepCollectingPDFs
	// StepCollectingZipEntries - accumulating files for a new archive
	StepCollectingZipEntries
	// StepAwaitingSplitRanges - waiting for a page-range expression
	StepAwaitingSplitRanges

	stepCount
)

var stepNames = [stepCount]string{
	StepIdle:                 "idle",
	StepMainMenu:             "main_menu",
	StepConvertMenu:          "convert_menu",
	StepCompressMenu:         "compress_menu",
	StepPDFMenu:              "pdf_menu",
	StepZipMenu:              "zip_menu",
	StepCollectingPDFs:       "collecting_pdfs",
	StepCollectingZipEntries: "collecting_zip_entries",
	StepAwaitingSplitRanges:  "awaiting_split_ranges",
}

// transitions lists the steps reachable from each step. Leaving a collecting
// state is only possible through a session reset, which installs a fresh idle
// session instead of transitioning.
var transitions = map[Step][]Step{
	StepIdle:                 {StepMainMenu},
	StepMainMenu:             {StepConvertMenu, StepCompressMenu, StepPDFMenu, StepZipMenu},
	StepConvertMenu:          {StepMainMenu},
	StepCompressMenu:         {StepMainMenu},
	StepPDFMenu:              {StepMainMenu, StepCollectingPDFs, StepAwaitingSplitRanges},
	StepZipMenu:              {StepMainMenu, StepCollectingZipEntries},
	StepCollectingPDFs:       {},
	StepCollectingZipEntries: {},
	StepAwaitingSplitRanges:  {StepPDFMenu},
}

func init() {
	if err := validateTransitions(transitions); err != nil {
		panic(err)
	}
}

// String returns the step name
func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is one of the declared steps
func (s Step) Valid() bool {
	return s >= StepIdle && s < stepCount
}

// IsCollecting reports whether inbound files are appended to the collection
func (s Step) IsCollecting() bool {
	return s == StepCollectingPDFs || s == StepCollectingZipEntries
}

// IsMenu reports whether text is read as a single menu selection token
func (s Step) IsMenu() bool {
	switch s {
	case StepMainMenu, StepConvertMenu, StepCompressMenu, StepPDFMenu, StepZipMenu:
		return true
	}
	return false
}

// CanTransition checks the transition table
func CanTransition(from, to Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// validateTransitions rejects tables that reference unknown steps, omit a
// step, or leave a step unreachable from idle.
func validateTransitions(table map[Step][]Step) error {
	for s := StepIdle; s < stepCount; s++ {
		if _, ok := table[s]; !ok {
			return fmt.Errorf("transition table has no entry for step %s", s)
		}
	}

	reached := map[Step]bool{StepIdle: true}
	queue := []Step{StepIdle}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]
		for _, to := range table[from] {
			if !to.Valid() {
				return fmt.Errorf("transition %s -> %s targets an unknown step", from, to)
			}
			if !reached[to] {
				reached[to] = true
				queue = append(queue, to)
			}
		}
	}

	for s := StepIdle; s < stepCount; s++ {
		if !reached[s] {
			return fmt.Errorf("step %s is unreachable from %s", s, StepIdle)
		}
	}
	return nil
}
