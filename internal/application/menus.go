package application

import "file-utility-bot/internal/domain"

const (
	mainMenuText = "📂 File Utility Bot\n" +
		"Send 1/2/3/4 as text to choose.\n\n" +
		"1) 🔄 Convert\n" +
		"2) 📉 Compress\n" +
		"3) 📑 PDF Tools\n" +
		"4) 📦 Zip / Unzip\n\n" +
		"Commands: /cancel (reset), /help"

	convertMenuText = "🔄 Convert - Send a number:\n" +
		"1) Image ⇢ PNG\n" +
		"2) Image ⇢ JPG\n" +
		"3) Image(s) ⇢ PDF\n" +
		"4) Audio ⇢ MP3\n" +
		"5) Audio ⇢ WAV\n" +
		"6) Video ⇢ MP4\n" +
		"7) Video ⇢ GIF\n" +
		"8) Back"

	compressMenuText = "📉 Compress - Send a number:\n" +
		"1) Image compress (quality ~70)\n" +
		"2) Video compress (lower bitrate)\n" +
		"3) PDF (re-save/optimize*)\n" +
		"4) Back\n\n" +
		"*Re-saving removes redundant objects and may reduce size modestly."

	pdfMenuText = "📑 PDF Tools - Send a number:\n" +
		"1) Merge PDFs (send multiple PDFs then type: done)\n" +
		"2) Split PDF (ranges e.g. 1-3,5,7)\n" +
		"3) Extract Text\n" +
		"4) Back"

	zipMenuText = "📦 Zip/Unzip - Send a number:\n" +
		"1) Create ZIP (send multiple files then type: done)\n" +
		"2) Extract ZIP\n" +
		"3) Back"

	helpText = "📝 How to use (no buttons, only text):\n" +
		"• Send any file and the main menu appears.\n" +
		"• Reply 1/2/3/4 to pick a category, then a number to pick a tool.\n" +
		"• /cancel resets everything.\n" +
		"• For Merge and Create ZIP send several files, then type 'done'.\n" +
		"• For Split send page ranges like 1-3,5,9\n"

	welcomeText = "👋 Welcome to File Utility Bot (text menu, no buttons!)\n\n" +
		"Just send a file. I support convert/compress/pdf/zip tools.\n\n"

	idlePrompt       = "📥 First send a file, then choose options.\n"
	sessionCleared   = "✅ Session cleared.\n"
	collectCancelled = "❎ Cancelled.\n"
	collectReminder  = "↪️ Send more files (PDFs for merge / any files for zip), or type done.\nType /cancel to abort."
	collectPDFPrompt = "📥 Send multiple PDF files (2 or more). Type done when finished. Use /cancel to abort."
	collectZipPrompt = "📥 Send files to include in ZIP. Type done to build the archive. /cancel to abort."
	splitPrompt      = "✂️ Send page ranges, e.g. 1-3,5,7"
	splitNeedsPDF    = "Send a PDF first (then choose Split)."
	workingText      = "⏳ Working..."
	splittingText    = "⏳ Splitting..."
	busyText         = "⏳ The bot is busy right now, please try again in a moment."
	defaultHint      = "Try /cancel and re-start."
	splitHint        = "Try again or /cancel."
	lateUploadsText  = "⚠️ Not included, received while working: "

	completionToken = "done"
	backToken       = "back"
)

// abortTokens end a collecting step without running its operation
var abortTokens = map[string]bool{
	"cancel": true,
	"back":   true,
	"3":      true,
	"4":      true,
}

type actionKind int

const (
	actionSubmenu actionKind = iota
	actionBack
	actionCollect
	actionAskRanges
	actionInvoke
)

type menuAction struct {
	kind   actionKind
	target domain.Step
	op     domain.Operation
}

type menu struct {
	text    string
	choose  string // Shown with the menu after an unknown token
	options map[string]menuAction
}

func submenu(step domain.Step) menuAction {
	return menuAction{kind: actionSubmenu, target: step}
}

func invoke(op domain.Operation) menuAction {
	return menuAction{kind: actionInvoke, op: op}
}

var back = menuAction{kind: actionBack, target: domain.StepMainMenu}

var menus = map[domain.Step]menu{
	domain.StepMainMenu: {
		text:   mainMenuText,
		choose: "❓ Send 1/2/3/4.\n",
		options: map[string]menuAction{
			"1": submenu(domain.StepConvertMenu),
			"2": submenu(domain.StepCompressMenu),
			"3": submenu(domain.StepPDFMenu),
			"4": submenu(domain.StepZipMenu),
		},
	},
	domain.StepConvertMenu: {
		text:   convertMenuText,
		choose: "❓ Send 1-8.\n",
		options: map[string]menuAction{
			"1":       invoke(domain.OpConvertPNG),
			"2":       invoke(domain.OpConvertJPG),
			"3":       invoke(domain.OpImagesToPDF),
			"4":       invoke(domain.OpAudioMP3),
			"5":       invoke(domain.OpAudioWAV),
			"6":       invoke(domain.OpVideoMP4),
			"7":       invoke(domain.OpVideoGIF),
			"8":       back,
			backToken: back,
		},
	},
	domain.StepCompressMenu: {
		text:   compressMenuText,
		choose: "❓ Send 1-4.\n",
		options: map[string]menuAction{
			"1":       invoke(domain.OpCompressImage),
			"2":       invoke(domain.OpCompressVideo),
			"3":       invoke(domain.OpCompressPDF),
			"4":       back,
			backToken: back,
		},
	},
	domain.StepPDFMenu: {
		text:   pdfMenuText,
		choose: "❓ Send 1-4.\n",
		options: map[string]menuAction{
			"1":       {kind: actionCollect, target: domain.StepCollectingPDFs},
			"2":       {kind: actionAskRanges, target: domain.StepAwaitingSplitRanges},
			"3":       invoke(domain.OpExtractText),
			"4":       back,
			backToken: back,
		},
	},
	domain.StepZipMenu: {
		text:   zipMenuText,
		choose: "❓ Send 1-3.\n",
		options: map[string]menuAction{
			"1":       {kind: actionCollect, target: domain.StepCollectingZipEntries},
			"2":       invoke(domain.OpExtractZip),
			"3":       back,
			backToken: back,
		},
	},
}

func init() {
	for step, m := range menus {
		for token, action := range m.options {
			if action.kind == actionInvoke {
				continue
			}
			if !domain.CanTransition(step, action.target) {
				panic("menu " + step.String() + " option " + token + " targets unreachable step " + action.target.String())
			}
		}
	}
}

func menuText(step domain.Step) string {
	if m, ok := menus[step]; ok {
		return m.text
	}
	return mainMenuText
}
