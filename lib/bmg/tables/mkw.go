package tables

// Mario Kart Wii MID ranges, grounded on the MID_* enum in the original
// lib-bmg.h. The patch engine's CT/LE/X copy-and-fill passes iterate
// these ranges track by track / arena by arena / cup by cup; the text
// emitter uses them to caption `#BMG` sections.
const (
	NTrack = 32 // tracks per track range (classic + CT + LE)
	NArena = 10 // arenas per arena range

	NRacingCup = 8 // classic racing cups
	NBattleCup = 2 // classic battle cups

	NCTRacingCup = 0x3e // CT-CODE racing cup slots
	NCTBattleCup = 2

	NLERacingCup = 0x400 // LE-CODE racing cup slots
	NLEBattleCup = 2

	RacingCupTracks = 4
	BattleCupTracks = 5
)

const (
	MidEngineBeg = 0x0589
	MidRandom    = 0x1101
	MidChatBeg   = 0x1194

	MidTrack1Beg = 0x2454
	MidTrack1End = MidTrack1Beg + NTrack
	MidTrack2Beg = 0x2490
	MidTrack2End = MidTrack2Beg + NTrack

	MidArena1Beg = 0x24b8
	MidArena1End = MidArena1Beg + NArena
	MidArena2Beg = 0x24cc
	MidArena2End = MidArena2Beg + NArena

	MidRCupBeg = 0x23f0
	MidRCupEnd = MidRCupBeg + NRacingCup
	MidBCupBeg = 0x2489
	MidBCupEnd = MidBCupBeg + NBattleCup

	MidParamIdentify = 0x3def
	MidParamBeg      = 0x3ff0
	MidParamEnd      = 0x4000

	// CT-CODE extension range.
	MidCTTrackBeg = 0x4000
	MidCTTrackEnd = MidCTTrackBeg + NTrack
	MidCTArenaBeg = MidCTTrackEnd
	MidCTArenaEnd = MidCTArenaBeg + NArena
	MidCTRandom   = MidCTTrackBeg + 0xff

	MidCTCupBeg  = 0x4200
	MidCTRCupBeg = MidCTCupBeg
	MidCTRCupEnd = MidCTRCupBeg + NCTRacingCup
	MidCTBCupBeg = MidCTRCupEnd
	MidCTBCupEnd = MidCTBCupBeg + NCTBattleCup
	MidCTCupEnd  = MidCTBCupEnd

	MidCTCupRefBeg = 0x4300

	// LE-CODE extension range.
	MidLECupBeg  = 0x6800
	MidLERCupBeg = MidLECupBeg
	MidLERCupEnd = MidLERCupBeg + NLERacingCup
	MidLEBCupBeg = MidLERCupEnd
	MidLEBCupEnd = MidLEBCupBeg + NLEBattleCup
	MidLECupEnd  = MidLEBCupEnd

	MidLETrackBeg = 0x7000
	MidLETrackEnd = MidLETrackBeg + NTrack
	MidLEArenaBeg = MidLETrackEnd
	MidLEArenaEnd = MidLEArenaBeg + NArena

	MidLECupRefBeg = 0x8000

	MidXMessageBeg = 0x6000
	MidXMessageEnd = 0x6200

	MidGenericBeg = 0xfff0
	MidKarts      = 0x0d67
	MidBikes      = 0x0d68
)

// Range is a named, half-open MID interval the text emitter captions and
// the patch engine iterates.
type Range struct {
	Name     string
	Begin    uint32
	End      uint32 // exclusive
	PerGroup uint32 // iteration stride, 1 in every range; the copy/fill passes step one MID at a time and do not read it
}

// Ranges is the full table of named MKW/CT-CODE/LE-CODE MID ranges.
var Ranges = []Range{
	{"TRACK1", MidTrack1Beg, MidTrack1End, 1},
	{"TRACK2", MidTrack2Beg, MidTrack2End, 1},
	{"ARENA1", MidArena1Beg, MidArena1End, 1},
	{"ARENA2", MidArena2Beg, MidArena2End, 1},
	{"RCUP", MidRCupBeg, MidRCupEnd, 1},
	{"BCUP", MidBCupBeg, MidBCupEnd, 1},
	{"CHAT", MidChatBeg, MidTrack1Beg, 1},
	{"PARAM", MidParamBeg, MidParamEnd, 1},

	{"CT-TRACK", MidCTTrackBeg, MidCTTrackEnd, 1},
	{"CT-ARENA", MidCTArenaBeg, MidCTArenaEnd, 1},
	{"CT-RCUP", MidCTRCupBeg, MidCTRCupEnd, 1},
	{"CT-BCUP", MidCTBCupBeg, MidCTBCupEnd, 1},
	{"CT-CUP-REF", MidCTCupRefBeg, MidLECupBeg, 1},

	{"LE-RCUP", MidLERCupBeg, MidLERCupEnd, 1},
	{"LE-BCUP", MidLEBCupBeg, MidLEBCupEnd, 1},
	{"LE-TRACK", MidLETrackBeg, MidLETrackEnd, 1},
	{"LE-ARENA", MidLEArenaBeg, MidLEArenaEnd, 1},
	{"LE-CUP-REF", MidLECupRefBeg, MidLECupRefBeg + NLERacingCup + NLEBattleCup, 1},

	{"X-MESSAGE", MidXMessageBeg, MidXMessageEnd, 1},
}

// RangeOf returns the named range containing mid, and the 0-based index
// of mid within that range, if any.
func RangeOf(mid uint32) (Range, uint32, bool) {
	for _, r := range Ranges {
		if mid >= r.Begin && mid < r.End {
			return r, mid - r.Begin, true
		}
	}
	return Range{}, 0, false
}

// TrackOffset maps a 0-based logical track index i to a MID offset
// within a track range through the caller-supplied trackIndex function
// (the identity when nil), for the track-reordering Mario Kart Wii applies
// between a track's position in the BMG table and its position in the
// race-select grid.
func TrackOffset(trackIndex func(i int) int, i int) uint32 {
	if trackIndex == nil {
		return uint32(i)
	}
	return uint32(trackIndex(i))
}
