package triage

// 固定文案，前端按原样展示。
const (
	GreetingMessage = "Hi, I'm your AI Health Assistant. How can I help you today?"

	EmergencyMessage = "Your message describes symptoms that may indicate a medical emergency. " +
		"Please call emergency services (911) immediately or go to the nearest emergency room. " +
		"Do not wait for an online response."

	FallbackMessage = "I apologize, but I'm having trouble connecting to the AI service right now. " +
		"This might be due to API key issues or service availability. " +
		"Please try again later or contact support if the issue persists."

	NotificationTitle       = "Connection Error"
	NotificationDescription = "Could not connect to AI service. Please try again later."

	promptPrefix = "You are a helpful AI health assistant. Always remind users that you can only " +
		"provide general information and they should consult healthcare professionals for medical advice. " +
		"User query: "
)

// BuildPrompt 把用户原文嵌入固定的安全提示词模板。
func BuildPrompt(userText string) string {
	return promptPrefix + userText
}
