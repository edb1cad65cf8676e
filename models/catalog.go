package models

// VoiceOption is one prebuilt voice of the speech model.
type VoiceOption struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Voices = []VoiceOption{
	{ID: "Kore", Name: "Kore", Description: "Deep & Professional"},
	{ID: "Puck", Name: "Puck", Description: "Energetic & Youthful"},
	{ID: "Charon", Name: "Charon", Description: "Calm & Wise"},
	{ID: "Fenrir", Name: "Fenrir", Description: "Strong & Narrative"},
	{ID: "Zephyr", Name: "Zephyr", Description: "Friendly & Bright"},
}

// PreviewPhrase is the fixed sample spoken when a user tests a voice.
// Previews never count against the character quota.
const PreviewPhrase = "Halo"

func VoiceByID(id string) (VoiceOption, bool) {
	for _, v := range Voices {
		if v.ID == id {
			return v, true
		}
	}
	return VoiceOption{}, false
}

var AspectRatios = []string{"1:1", "16:9", "9:16", "4:3", "3:4"}

var Resolutions = []string{"720p", "1080p"}

func ValidAspectRatio(r string) bool {
	for _, a := range AspectRatios {
		if a == r {
			return true
		}
	}
	return false
}

func ValidResolution(r string) bool {
	for _, v := range Resolutions {
		if v == r {
			return true
		}
	}
	return false
}
