package notifier

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/ai"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/document"
	"github.com/shunichi-ikebuchi/moneybird-slack-bot/pkg/matching"
)

// buildDocumentBlocks renders the full Block Kit message for a document:
// header, field grid, journal suggestion, optional attachment link,
// candidate list with a link button for the top candidate, and the
// book/skip buttons.
func buildDocumentBlocks(doc document.Document, entry ai.JournalEntry, candidates []matching.Candidate, attachmentPermalink string) []slack.Block {
	label := doc.Kind.Label()

	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("New %s received", label), false, false),
		),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn(fmt.Sprintf("*Vendor:*\n%s", orDash(doc.CounterpartyName))),
			mrkdwn(fmt.Sprintf("*Date:*\n%s", orDash(doc.Date))),
			mrkdwn(fmt.Sprintf("*Amount:*\n%s %s", doc.Currency, doc.Amount)),
			mrkdwn(fmt.Sprintf("*Description:*\n%s", orDash(doc.Memo))),
		}, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf(
			"*Journal Entry Suggestion*\n• Debit: `%s`\n• Credit: `%s`\n_%s_",
			orDash(entry.Debit), orDash(entry.Credit), entry.Explanation,
		)), nil, nil),
	}

	if attachmentPermalink != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			mrkdwn(fmt.Sprintf("*Attachment:* <%s|View file>", attachmentPermalink)), nil, nil,
		))
	}

	blocks = append(blocks, slack.NewDividerBlock())
	blocks = append(blocks, candidateBlocks(doc, candidates)...)
	blocks = append(blocks, decisionBlock(doc, label))

	return blocks
}

// candidateBlocks renders the payment match candidates, or a placeholder
// when there are none. The top candidate gets a link-payment button.
func candidateBlocks(doc document.Document, candidates []matching.Candidate) []slack.Block {
	if len(candidates) == 0 {
		return []slack.Block{
			slack.NewSectionBlock(mrkdwn("_No matching bank transactions found._"), nil, nil),
		}
	}

	shown := candidates
	if len(shown) > maxCandidates {
		shown = shown[:maxCandidates]
	}

	lines := make([]string, 0, len(shown))
	for _, c := range shown {
		lines = append(lines, fmt.Sprintf("%s `%s` - %s - %s",
			verdictIcon(c.Verdict), c.Date, c.Amount, orDefault(c.Description, "No description")))
	}

	top := candidates[0]
	return []slack.Block{
		slack.NewSectionBlock(mrkdwn(
			"*Payment Match Candidates* (bank transactions with similar amount)\n"+strings.Join(lines, "\n"),
		), nil, nil),
		slack.NewActionBlock("payment_actions",
			slack.NewButtonBlockElement(ActionLinkPayment,
				fmt.Sprintf("%s:%s:%s", doc.Kind, doc.ID, top.ID),
				slack.NewTextBlockObject(slack.PlainTextType, "💳 Link this payment", true, false),
			).WithStyle(slack.StylePrimary),
		),
	}
}

// decisionBlock renders the book/skip buttons; booking asks for an extra
// confirmation before firing the callback.
func decisionBlock(doc document.Document, label string) slack.Block {
	bookButton := slack.NewButtonBlockElement(ActionBookDocument,
		fmt.Sprintf("%s:%s", doc.Kind, doc.ID),
		slack.NewTextBlockObject(slack.PlainTextType, "✅ OK - Book it", true, false),
	).WithStyle(slack.StylePrimary)
	bookButton.WithConfirm(slack.NewConfirmationBlockObject(
		slack.NewTextBlockObject(slack.PlainTextType, "Confirm booking", false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Book this %s in Moneybird?", label), false, false),
		slack.NewTextBlockObject(slack.PlainTextType, "Yes, book it", false, false),
		slack.NewTextBlockObject(slack.PlainTextType, "Cancel", false, false),
	))

	skipButton := slack.NewButtonBlockElement(ActionSkipDocument,
		fmt.Sprintf("%s:%s", doc.Kind, doc.ID),
		slack.NewTextBlockObject(slack.PlainTextType, "❌ NG - Skip", true, false),
	)

	return slack.NewActionBlock("decision_actions", bookButton, skipButton)
}

// verdictIcon maps a model verdict to the candidate list icon: green for
// verdicts starting with YES, yellow otherwise.
func verdictIcon(verdict string) string {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(verdict)), "YES") {
		return "🟢"
	}
	return "🟡"
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func orDash(s string) string {
	return orDefault(s, "-")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
