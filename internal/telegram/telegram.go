package telegram

//go:generate go run go.uber.org/mock/mockgen -source=telegram.go -destination=mocks/mock.go

// Client posts MarkdownV2 announcements to the configured channel. Delivery is best
// effort: failures are logged, never returned.
type Client interface {
	SendMessageToDefaultChannel(msg string)
	SendPhotoToDefaultChannel(url, caption string)
}
