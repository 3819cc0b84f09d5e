// Command shaderbridge runs the shader bridge engine or talks to a
// running one.
//
// Usage:
//
//	shaderbridge serve [-config bridge.yaml] [-watch shader.wgsl] [-v]
//	shaderbridge submit -action set_shader -file shader.wgsl
//	shaderbridge status
//	shaderbridge export -description "night mode" [-uniforms '{"time": 2.5}']
//	shaderbridge baseline <set|compare> -name main [-threshold 0.02]
//	shaderbridge snapshots
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/shaderbridge"
	"github.com/gogpu/shaderbridge/backend/wgpu"
	"github.com/gogpu/shaderbridge/bridge"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "submit":
		err = runSubmit(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "export":
		err = runSubmit(append([]string{"-action", bridge.ActionExportFrame, "-wait"}, os.Args[2:]...))
	case "snapshots":
		err = runSubmit(append([]string{"-action", bridge.ActionListSnapshots, "-wait"}, os.Args[2:]...))
	case "baseline":
		err = runBaseline(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("shaderbridge: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: shaderbridge <serve|submit|status|export|snapshots|baseline> [flags]")
}

func runBaseline(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("baseline requires <set|compare>")
	}
	var action string
	switch args[0] {
	case "set":
		action = bridge.ActionSetBaseline
	case "compare":
		action = bridge.ActionCompareBaseline
	default:
		return fmt.Errorf("baseline: unknown subcommand %q", args[0])
	}
	return runSubmit(append([]string{"-action", action, "-wait"}, args[1:]...))
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	watchPath := fs.String("watch", "", "shader file to watch and auto-reload")
	verbose := fs.Bool("v", false, "log to stderr")
	_ = fs.Parse(args)

	cfg := shaderbridge.DefaultConfig()
	if *configPath != "" {
		loaded, err := shaderbridge.LoadConfigFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *verbose {
		shaderbridge.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	renderer, err := wgpu.New()
	if err != nil {
		return err
	}

	engine, err := shaderbridge.NewEngine(cfg, renderer)
	if err != nil {
		_ = renderer.Close()
		return err
	}
	defer func() { _ = engine.Close() }()

	mailbox := bridge.NewMailbox()
	dispatcher := bridge.NewDispatcher(mailbox, engine, cfg.PollInterval)
	server := bridge.NewServer(cfg.SocketPath, mailbox)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := dispatcher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("dispatcher stopped: %v", err)
		}
	}()
	if *watchPath != "" {
		go func() {
			if err := shaderbridge.WatchFile(ctx, *watchPath, mailbox); err != nil && ctx.Err() == nil {
				log.Printf("watcher stopped: %v", err)
			}
		}()
	}

	log.Printf("serving on %s", cfg.SocketPath)
	return server.Serve(ctx)
}

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	socket := fs.String("socket", shaderbridge.DefaultConfig().SocketPath, "server socket path")
	action := fs.String("action", "", "command action")
	file := fs.String("file", "", "shader source file for set_shader actions")
	name := fs.String("name", "", "name argument")
	description := fs.String("description", "", "description argument")
	id := fs.String("id", "", "snapshot id")
	uniforms := fs.String("uniforms", "", "uniform overrides as JSON object")
	duration := fs.Float64("duration", 0, "sequence duration in seconds")
	fps := fs.Float64("fps", 0, "sequence frames per second")
	threshold := fs.Float64("threshold", -1, "baseline diff threshold (0 exact, negative for default)")
	wait := fs.Bool("wait", false, "poll status until this action is dispatched")
	_ = fs.Parse(args)

	if *action == "" {
		return fmt.Errorf("submit requires -action")
	}

	cmd := &bridge.Command{
		Action:      *action,
		Name:        *name,
		Description: *description,
		ID:          *id,
		Duration:    *duration,
		FPS:         *fps,
	}
	if *threshold >= 0 {
		cmd.Threshold = threshold
	}
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		cmd.Source = string(data)
		cmd.FilePath = *file
	}
	if *uniforms != "" {
		if err := json.Unmarshal([]byte(*uniforms), &cmd.Uniforms); err != nil {
			return fmt.Errorf("bad -uniforms JSON: %w", err)
		}
	}

	client, err := bridge.Dial(*socket, 5*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ack, err := client.Submit(cmd)
	if err != nil {
		return err
	}
	if !*wait {
		log.Printf("submitted %s", cmd.Action)
		return nil
	}

	status, err := client.WaitFor(cmd.Action, ack.Timestamp, 100*time.Millisecond, 30*time.Second)
	if err != nil {
		return err
	}
	return printStatus(status)
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	socket := fs.String("socket", shaderbridge.DefaultConfig().SocketPath, "server socket path")
	_ = fs.Parse(args)

	client, err := bridge.Dial(*socket, 5*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	status, err := client.Status()
	if err != nil {
		return err
	}
	return printStatus(status)
}

func printStatus(status *bridge.StatusRecord) error {
	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
