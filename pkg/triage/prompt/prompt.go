package prompt

// AskUserPrompt is the fixed two-option message sent whenever intent is
// ambiguous. The text is load-bearing: the state machine fingerprints it
// when recovering WAITING_FOR_CHOICE from durable history, so any edit
// here must keep the fingerprints below matching.
const AskUserPrompt = "I wasn't able to find a direct answer for this one in our knowledge base — but no worries, I can still get you help! 😊\n\n" +
	"What would work best for you?\n\n" +
	"**1)** Create an incident — this logs your issue, assigns it to the right team, and you'll get updates as it's worked on.\n\n" +
	"**2)** Request a callback — a support specialist will call you back directly.\n\n" +
	"Just reply **1** or **2** and I'll take care of it!"

// ChoicePromptFingerprints identify an assistant turn as the two-option
// prompt when scanning history after a restart.
var ChoicePromptFingerprints = []string{
	"reply **1** or **2**",
	"reply with 1 or 2",
	"1)",
}

// DegradedSummary is returned when the reasoning step fails outright.
const DegradedSummary = "I encountered a temporary issue processing your request. Please try again or contact the help desk directly."

// Termination markers: the agent loop stops once the last message
// carries one of these.
var TerminationMarkers = []string{
	`"final": true`,
	`"final":true`,
	"FINAL_RESOLUTION",
}
