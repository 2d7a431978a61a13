// Package prompt composes the realtime session instructions and the
// opening-turn directive from call metadata.
package prompt

import (
	"strings"

	"github.com/dipsyai/voicebridge/pkg/telephony"
)

const notAvailable = "(not available)"

const firstCallBlock = `This is the first conversation with this person. You have no prior ` +
	`memory of them; treat everything they tell you as new.`

// Compose appends the first-call or follow-up context block to the base
// agent prompt. On follow-up calls the prior summary and transcript are
// inlined so the agent can pick up where the last call left off.
func Compose(base string, callType telephony.CallType, lastSummary, lastTranscript string) string {
	var block string
	if callType == telephony.CallFollowup {
		block = followupBlock(lastSummary, lastTranscript)
	} else {
		block = firstCallBlock
	}
	return base + "\n\n" + block
}

func followupBlock(lastSummary, lastTranscript string) string {
	if strings.TrimSpace(lastSummary) == "" {
		lastSummary = notAvailable
	}
	if strings.TrimSpace(lastTranscript) == "" {
		lastTranscript = notAvailable
	}

	var sb strings.Builder
	sb.WriteString("This is a follow-up conversation. You have spoken with this person before.\n")
	sb.WriteString("Summary of the previous call:\n")
	sb.WriteString(lastSummary)
	sb.WriteString("\n\nTranscript of the previous call:\n")
	sb.WriteString(lastTranscript)
	sb.WriteString("\n\nDo not repeat the baseline qualification questions you already asked. ")
	sb.WriteString("Acknowledge that you spoke before and continue from the prior conversation.")
	return sb.String()
}

// Opening directives for the first response, keyed by direction and
// call type. These are sent as the instructions of the initial
// response.create once the session is configured.
var openingDirectives = map[telephony.Direction]map[telephony.CallType]string{
	telephony.DirectionOutbound: {
		telephony.CallFirst: "Greet the person you are calling, introduce yourself as Dipsy, " +
			"and briefly explain why you are calling. Keep it to two short sentences.",
		telephony.CallFollowup: "Greet the person you are calling, remind them you are Dipsy " +
			"and that you spoke before, and say you are following up on the last conversation.",
	},
	telephony.DirectionInbound: {
		telephony.CallFirst: "Someone has just called in. Welcome them, introduce yourself as " +
			"Dipsy, and ask how you can help.",
		telephony.CallFollowup: "Someone you have spoken with before has called in. Welcome them " +
			"back as Dipsy, acknowledge the earlier conversation, and ask how you can help today.",
	},
}

// OpeningDirective returns the initial-turn instruction for the given
// call metadata.
func OpeningDirective(direction telephony.Direction, callType telephony.CallType) string {
	return openingDirectives[direction][callType]
}
