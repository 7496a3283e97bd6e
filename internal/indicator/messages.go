package indicator

// message is one notification's (title, body) pair.
type message struct {
	title string
	body  string
}

type messages struct {
	recording  message
	processing message
	failure    message
}

func defaultMessages() messages {
	return messages{
		recording:  message{title: "Recording…", body: "Toggle again to stop and transcribe"},
		processing: message{title: "Transcribing…", body: "Sending audio for transcription"},
		failure:    message{title: "Voice capture error"},
	}
}
