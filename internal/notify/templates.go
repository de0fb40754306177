// AngelaMos | 2026
// templates.go

package notify

import (
	"fmt"
	"strings"

	"github.com/carterperez-dev/balaoui/internal/state"
)

const SystemPrefix = "[NOTIFICATION SYSTÈME]"

var orderStatusText = map[string]string{
	"paid":      "a été payée. Vous pouvez préparer l'envoi",
	"shipped":   "a été expédiée",
	"delivered": "a été marquée comme reçue par l'acheteur",
	"completed": "est terminée. Les fonds ont été libérés sur votre solde",
	"cancelled": "a été annulée",
	"disputed":  "fait l'objet d'un litige. Notre équipe va l'examiner",
}

// Render composes the system message for e.
func Render(e Event) string {
	title := quoted(e.ProductTitle)

	var body string
	switch e.Kind {
	case KindProductStatus:
		switch e.Status {
		case "approved":
			body = fmt.Sprintf("Votre annonce %s a été approuvée et est maintenant visible.", title)
		case "rejected":
			body = fmt.Sprintf("Votre annonce %s a été rejetée par la modération.", title)
		default:
			body = fmt.Sprintf("Le statut de votre annonce %s est maintenant : %s.", title, e.Status)
		}

	case KindReportStatus:
		switch e.Status {
		case "resolved":
			body = fmt.Sprintf("Merci ! Votre signalement concernant %s a été traité et des mesures ont été prises.", title)
		case "dismissed":
			body = fmt.Sprintf("Votre signalement concernant %s a été examiné et classé sans suite.", title)
		default:
			body = fmt.Sprintf("Votre signalement concernant %s est maintenant : %s.", title, e.Status)
		}

	case KindDisputeStatus:
		subject := "votre commande"
		if e.ProductTitle != "" {
			subject = "votre commande " + title
		}
		switch e.Status {
		case "resolved":
			body = fmt.Sprintf("Le litige concernant %s a été résolu.", subject)
		case "closed":
			body = fmt.Sprintf("Le litige concernant %s a été clôturé.", subject)
		default:
			body = fmt.Sprintf("Le litige concernant %s est maintenant : %s.", subject, e.Status)
		}
		if r := strings.TrimSpace(e.Resolution); r != "" {
			body += " Décision : " + r
		}

	case KindOrderShipped:
		body = fmt.Sprintf("Votre commande %s a été expédiée via %s. Numéro de suivi : %s.",
			title, e.ShippingProvider, e.TrackingNumber)

	case KindOrderStatus:
		text, ok := orderStatusText[e.Status]
		if !ok {
			text = "est maintenant : " + e.Status
		}
		body = fmt.Sprintf("La commande %s %s.", title, text)

	case KindReviewPosted:
		body = fmt.Sprintf("Vous avez reçu une évaluation de %s/5 pour %s.", e.Status, title)

	default:
		body = fmt.Sprintf("Mise à jour : %s.", e.Status)
	}

	return SystemPrefix + " " + body
}

// Subject is the e-mail subject line for e.
func Subject(e Event) string {
	switch e.Kind {
	case KindProductStatus:
		return "BALAoui : mise à jour de votre annonce"
	case KindReportStatus:
		return "BALAoui : suivi de votre signalement"
	case KindDisputeStatus:
		return "BALAoui : suivi de votre litige"
	case KindReviewPosted:
		return "BALAoui : nouvelle évaluation"
	default:
		return "BALAoui : mise à jour de votre commande"
	}
}

// Link is the screen the recipient should land on from the notification.
func Link(e Event, conversationID string) state.View {
	switch e.Kind {
	case KindOrderShipped, KindOrderStatus, KindDisputeStatus:
		return state.Orders{}
	case KindProductStatus, KindReportStatus:
		if e.ProductID != nil {
			return state.ProductDetail{ProductID: *e.ProductID}
		}
	case KindReviewPosted:
		return state.Profile{UserID: e.RecipientID}
	}
	return state.Chat{ConversationID: conversationID}
}

func quoted(title string) string {
	if title == "" {
		return "(sans titre)"
	}
	return "« " + title + " »"
}
