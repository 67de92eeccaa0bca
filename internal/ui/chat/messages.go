// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/voicechat/internal/config"
	"github.com/jeranaias/voicechat/internal/controller"
	"github.com/jeranaias/voicechat/internal/storage"
)

// =============================================================================
// MESSAGES
// =============================================================================

// eventMsg carries one controller event.
type eventMsg struct {
	event controller.Event
}

// eventsClosedMsg is sent when the controller's event channel closes.
type eventsClosedMsg struct{}

// actionDoneMsg reports the result of a controller call. input is the
// text a send carried, so it can be restored when the send is refused.
type actionDoneMsg struct {
	action string
	input  string
	err    error
}

// historyMsg carries saved transcript entries for /history.
type historyMsg struct {
	entries []storage.Entry
	err     error
}

// ConfigReloadedMsg is sent by the application when the config file
// changes on disk. Err is set when the new file failed to load.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}
