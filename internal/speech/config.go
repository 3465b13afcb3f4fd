package speech

// Default TTS voice when the preference language has no mapping.
const DefaultVoice = "en-US-AvaNeural"

// Audio format requested from the synthesizer and expected by the
// player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Env var names for the speech service credentials.
const (
	EnvSpeechKey    = "COOKALONG_SPEECH_KEY"
	EnvSpeechRegion = "COOKALONG_SPEECH_REGION"
)

// voiceForLang maps a preference language tag to a synthesis voice.
var voiceForLang = map[string]string{
	"en-US": "en-US-AvaNeural",
	"en-GB": "en-GB-SoniaNeural",
	"en-AU": "en-AU-NatashaNeural",
	"fr-FR": "fr-FR-DeniseNeural",
	"de-DE": "de-DE-KatjaNeural",
	"es-ES": "es-ES-ElviraNeural",
}

// VoiceFor returns the voice for a language tag, falling back to the
// default voice.
func VoiceFor(lang string) string {
	if v, ok := voiceForLang[lang]; ok {
		return v
	}
	return DefaultVoice
}
