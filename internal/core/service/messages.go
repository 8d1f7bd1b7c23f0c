package service

import (
	"fmt"
	"strings"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
)

// Message is an outbound notification ready for the dispatcher.
type Message struct {
	Subject string
	Body    string
}

func confirmEmailMessage(name, link string) Message {
	return Message{
		Subject: "Confirm your email address",
		Body: fmt.Sprintf("Hi %s,\n\nPlease confirm your email address by following this link within the hour:\n\n%s\n",
			name, link),
	}
}

func passwordResetMessage(name, link string) Message {
	return Message{
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hi %s,\n\nSomeone asked to reset your password. If it was you, follow this link:\n\n%s\n\nOtherwise ignore this message.\n",
			name, link),
	}
}

func supportVerifyMessage(link string) Message {
	return Message{
		Subject: "Confirm the new support address",
		Body: fmt.Sprintf("This address was set as the support contact. It stays inactive until you confirm it:\n\n%s\n",
			link),
	}
}

func roleChangeLinkMessage(target *domain.User, role domain.Role, grant bool, link string) Message {
	verb := "revoke"
	if grant {
		verb = "grant"
	}
	return Message{
		Subject: fmt.Sprintf("Confirm: %s %s role for %s", verb, role, target.Name),
		Body: fmt.Sprintf("Follow this link to %s the %s role for %s <%s>:\n\n%s\n",
			verb, role, target.Name, target.Email, link),
	}
}

func roleChangedMessage(role domain.Role, grant bool) Message {
	if grant {
		return Message{
			Subject: fmt.Sprintf("You are now %s", article(string(role))),
			Body:    fmt.Sprintf("You have been granted the %s role.\n", role),
		}
	}
	return Message{
		Subject: fmt.Sprintf("Your %s role was removed", role),
		Body:    fmt.Sprintf("The %s role has been removed from your account.\n", role),
	}
}

func roleNotificationBody(role domain.Role, grant bool) string {
	if grant {
		return fmt.Sprintf("You have been granted the %s role.", role)
	}
	return fmt.Sprintf("Your %s role was removed.", role)
}

func deleteUserLinkMessage(target *domain.User, link string) Message {
	return Message{
		Subject: fmt.Sprintf("Confirm deletion of %s", target.Name),
		Body:    fmt.Sprintf("Follow this link to delete the account %s <%s>:\n\n%s\n", target.Name, target.Email, link),
	}
}

func deletionReviewMessage(owner *domain.User, report *domain.DeletionReport) Message {
	return Message{
		Subject: fmt.Sprintf("Account deletion requested by %s", owner.Name),
		Body: fmt.Sprintf("%s <%s> asked for their account to be deleted.\n\nReason: %s\n%s\n\nApprove: %s\nReject:  %s\n",
			owner.Name, owner.Email, report.Reason, report.Explanation, report.ApproveLink, report.RejectLink),
	}
}

func accountDeletedMessage(name string) Message {
	return Message{
		Subject: "Your account was deleted",
		Body:    fmt.Sprintf("Hi %s,\n\nYour account and everything it owned has been deleted.\n", name),
	}
}

func deletionRejectedMessage(name string) Message {
	return Message{
		Subject: "Your deletion request was declined",
		Body:    fmt.Sprintf("Hi %s,\n\nAn administrator declined your account deletion request.\n", name),
	}
}

func apiKeyBlockMessage(blocked bool) Message {
	if blocked {
		return Message{Subject: "Your API key was blocked", Body: "An administrator blocked your API key.\n"}
	}
	return Message{Subject: "Your API key was unblocked", Body: "An administrator unblocked your API key.\n"}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an " + word
	}
	return "a " + word
}
