// Package tutor implements the conversational personas: a Socratic math
// tutor that never gives away answers, and a VC mentor that challenges a
// founder walking through a pitch deck. Both build a system prompt from the
// persona, optional deck context, and an optional spoken walkthrough, then
// call the text-generation service with the message history.
package tutor
