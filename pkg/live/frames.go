package live

// Wire frames for the BidiGenerateContent websocket protocol. Field names
// follow the JSON the endpoint speaks; only the subset this gateway uses is
// modeled.

type setupFrame struct {
	Setup setupBody `json:"setup"`
}

type setupBody struct {
	Model             string           `json:"model"`
	GenerationConfig  generationConfig `json:"generation_config"`
	SystemInstruction *content         `json:"system_instruction,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"response_modalities"`
	SpeechConfig       *speechConfig `json:"speech_config,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voice_config"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuilt_voice_config"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voice_name"`
}

type clientContentFrame struct {
	ClientContent clientContent `json:"client_content"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turn_complete"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"` // base64
}

// serverFrame is the shape of frames read back from the endpoint. SetupComplete
// is present (possibly empty) on the setup acknowledgment.
type serverFrame struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn    *content `json:"modelTurn,omitempty"`
	TurnComplete bool     `json:"turnComplete,omitempty"`
}
