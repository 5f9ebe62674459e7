package layout

import "nitro-core-dx/internal/keyevent"

// BuildIndexes walks every plane and tag in l to (re)compute the target-key
// set, the trigger-key set, MaxChordSize, and HasThumbShift. Called once at
// load time per spec.md §4.9; never on the hot path.
func BuildIndexes(l *Layout) {
	l.TargetKeys = map[keyevent.KeyId]bool{}
	l.TriggerKeys = map[keyevent.KeyId]bool{}
	l.HasThumbShift = false
	maxTagKeys := 1

	for _, section := range l.Sections {
		markPlaneTargets(l.TargetKeys, section.BasePlane)

		for tag, plane := range section.SubPlanes {
			markPlaneTargets(l.TargetKeys, plane)
			keys := l.TagKeys[tag]
			if len(keys) > maxTagKeys {
				maxTagKeys = len(keys)
			}
			for _, k := range keys {
				l.TriggerKeys[k] = true
				l.TargetKeys[k] = true
			}
		}

		if sectionMentionsThumbShift(section.Name) {
			l.HasThumbShift = true
		}
	}

	if maxTagKeys >= 2 {
		l.MaxChordSize = 3
	} else {
		l.MaxChordSize = 2
	}

	l.FunctionSwapMap = map[keyevent.KeyId]keyevent.KeyId{}
	for _, swap := range l.FunctionSwaps {
		l.FunctionSwapMap[swap.Source] = swap.Target
		l.TargetKeys[swap.Source] = true
	}
}

func markPlaneTargets(targets map[keyevent.KeyId]bool, plane Plane) {
	for rc := range plane {
		key, ok := RCToScancode(rc)
		if ok {
			targets[key] = true
		}
	}
}

// sectionMentionsThumbShift reports whether a section name's suffix
// indicates any thumb-shift combination, per the §4.3 section-name table.
func sectionMentionsThumbShift(name string) bool {
	for _, suffix := range []string{
		"左親指シフト", "右親指シフト",
		"小指左親指シフト", "小指右親指シフト",
		"拡張親指シフト1", "拡張親指シフト2",
	} {
		if containsSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func containsSuffix(name, suffix string) bool {
	if len(name) < len(suffix) {
		return false
	}
	return name[len(name)-len(suffix):] == suffix
}
