package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"patabol/bot"
	"patabol/utils"
)

const cliUserID = "cli:user"

// runCLI is the terminal client: the exact command set the chat channels
// speak, against the same session manager, with the match narrated inline.
func runCLI(processor *bot.Processor, runner *bot.Runner, greeter *bot.Greeter) {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	printMsg := func(msg string) {
		fmt.Println(utils.RenderANSI(msg, tty))
	}

	fmt.Println("⚽ PATABOL - CLI (mismos comandos que WhatsApp)")
	fmt.Println("Escribí /sesion <nickname> [nombre_equipo] para crear una sesión.")
	fmt.Println("Luego /u ia [nombre_equipo] para jugar vs IA. /h para ayuda.")
	fmt.Println()

	if msg := greeter.Greet(cliUserID); msg != "" {
		printMsg(msg)
		fmt.Println()
	}

	notify := func(userID string, msgs []string) {
		for _, m := range msgs {
			if userID == cliUserID {
				printMsg(m)
			} else {
				fmt.Fprintf(os.Stderr, "[Para otro jugador] %s\n", utils.RenderANSI(m, false))
			}
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\n👋 ¡Hasta luego!")
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		replies, ready := processor.Handle(line, cliUserID, notify)
		for _, r := range replies {
			printMsg(r)
		}

		if ready != nil {
			// narrate inline; the CLI user is the only human watching
			runner.Run(ready, func(_ []string, msg string) {
				printMsg(msg)
			})
		}
	}
}
