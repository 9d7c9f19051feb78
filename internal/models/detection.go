package models

// DetectionCandidate is one classifier's opinion about an audio clip.
// When Failed is true the label and confidence are meaningless.
type DetectionCandidate struct {
	PredictedLabel string  `json:"predicted_label"`
	Confidence     float64 `json:"confidence"`
	ModelName      string  `json:"model_name"`
	Failed         bool    `json:"failed"`
}

// ArbitratedPrediction is the single authoritative prediction selected
// from two candidates.
type ArbitratedPrediction struct {
	Label       string  `json:"label"`
	Confidence  float64 `json:"confidence"`
	SourceModel string  `json:"source_model"`
}

// DetectionMessage is the wire form published by the ML inference process
// after analysing an audio clip, carrying both model outputs.
type DetectionMessage struct {
	CarID     string             `json:"car_id"`
	Primary   DetectionCandidate `json:"primary"`
	Secondary DetectionCandidate `json:"secondary"`
	Timestamp int64              `json:"timestamp"`
}

// DispatchChannel identifies which escalation side effect an action performs.
type DispatchChannel string

const (
	ChannelBroadcast   DispatchChannel = "broadcast"
	ChannelOwnerNotify DispatchChannel = "owner_notify"
	ChannelPaging      DispatchChannel = "paging_simulation"
)

// NotifyMedium distinguishes owner-notification transports.
type NotifyMedium string

const (
	MediumEmail NotifyMedium = "email"
	MediumSMS   NotifyMedium = "sms"
)

// DispatchAction is one escalation step produced by the escalation policy
// and executed by the alert engine. Ephemeral, never persisted.
type DispatchAction struct {
	Channel DispatchChannel

	// Broadcast fields
	Topic   string
	Payload map[string]interface{}

	// OwnerNotify fields
	Medium    NotifyMedium
	Recipient string
	Subject   string
	Body      string

	// PagingSimulation fields
	Message string
}
