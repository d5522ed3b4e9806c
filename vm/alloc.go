package vm

// allocate picks the voice for a new note among the voices of the current
// polyphony: the first free voice, otherwise the voice released longest
// ago, otherwise the voice that was triggered longest ago. Ties go to the
// lowest index.
func (s *Synth) allocate() int {
	releasing, active := -1, -1
	for i := 0; i < s.patch.NumVoices; i++ {
		v := &s.voices[i]
		switch v.state {
		case VoiceFree:
			return i
		case VoiceReleasing:
			if releasing < 0 || v.age > s.voices[releasing].age {
				releasing = i
			}
		case VoiceActive:
			if active < 0 || v.age > s.voices[active].age {
				active = i
			}
		}
	}
	if releasing >= 0 {
		return releasing
	}
	return active
}
