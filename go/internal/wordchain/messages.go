package wordchain

import "fmt"

// NotificationCategory is the chat event type used for every word-chain message.
const NotificationCategory = "wordChain"

// unknownPlayerName is shown when a player's nickname cannot be resolved for
// informational messages.
const unknownPlayerName = "unknown"

func startedMessage(word, next string) string {
	return fmt.Sprintf("Word chain started! The first word is %q. %s goes next.", word, next)
}

func acceptedMessage(word, next string) string {
	return fmt.Sprintf("%q accepted. %s goes next, starting with %q.", word, next, string(LastRune(word)))
}

func eliminatedMessage(player string) string {
	return fmt.Sprintf("%s ran out of time and is eliminated.", player)
}

func winnerMessage(player string) string {
	return fmt.Sprintf("%s wins the word chain!", player)
}

func abortedMessage() string {
	return "Every player was eliminated. The word chain is over."
}

func nextTurnMessage(player, currentWord string) string {
	return fmt.Sprintf("%s goes next. Enter a word starting with %q.", player, string(LastRune(currentWord)))
}

func rejectionMessage(v Verdict, word, currentWord, rightful string) string {
	switch v.Reason {
	case ReasonEmptyWord:
		return "Enter a word to play."
	case ReasonNotParticipant:
		return "Only members of this room can start a word chain."
	case ReasonNotEnoughPlayers:
		return fmt.Sprintf("A word chain needs at least %d players.", MinPlayers)
	case ReasonNotYourTurn:
		return fmt.Sprintf("It is not your turn. It is %s's turn.", rightful)
	case ReasonAlreadyUsed:
		return fmt.Sprintf("%q has already been used. Try another word.", word)
	case ReasonChainBroken:
		return fmt.Sprintf("%q does not start with %q, the last letter of %q. Try another word.", word, string(LastRune(currentWord)), currentWord)
	case ReasonUnknownWord:
		return fmt.Sprintf("%q is not in the dictionary. Try another word.", word)
	default:
		return fmt.Sprintf("%q was not accepted.", word)
	}
}
