// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetd/streamwire/common"
	"github.com/packetd/streamwire/confengine"
	"github.com/packetd/streamwire/endpoint"
	"github.com/packetd/streamwire/internal/zerocopy"
	"github.com/packetd/streamwire/logger"
	"github.com/packetd/streamwire/metrics"
	"github.com/packetd/streamwire/server"
)

type serveConfig struct {
	Listen string
	Config string
}

var serveConf serveConfig

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a demo HTTP server that replies through a wire.Parser round trip",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runServe(serveConf); err != nil {
			fmt.Fprintf(os.Stderr, "failed to serve: %v\n", err)
			os.Exit(1)
		}
	},
	Example: "# streamwire serve --listen :8080 --config streamwire.yaml",
}

func init() {
	serveCmd.Flags().StringVar(&serveConf.Listen, "listen", ":8080", "Address the demo server listens on")
	serveCmd.Flags().StringVar(&serveConf.Config, "config", "", "Optional configuration file path")
	rootCmd.AddCommand(serveCmd)
}

func runServe(conf serveConfig) error {
	var cfg *confengine.Config
	if conf.Config != "" {
		loaded, err := confengine.LoadConfigPath(conf.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		loaded, err := confengine.LoadContent([]byte("server:\n  enabled: false\n"))
		if err != nil {
			return err
		}
		cfg = loaded
	}

	opts, err := cfg.UnpackOptions("endpoint")
	if err != nil {
		return err
	}

	if admin, err := server.New(cfg); err == nil && admin != nil {
		go func() {
			if err := admin.ListenAndServe(); err != nil {
				logger.Errorf("admin server stopped: %v", err)
			}
		}()
	}

	info := common.GetBuildInfo()
	metrics.SetBuildInfo(info.Version, info.GitHash, info.Time)
	go reportUptime()

	l, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return err
	}
	logger.Infof("serving on %s", conf.Listen)

	go func() {
		<-terminate()
		l.Close()
	}()

	// caps how many connections are parsed concurrently; streamwire has no
	// sniffer/NIC to throttle against, so this stands in for it.
	sem := make(chan struct{}, common.Concurrency())
	for {
		conn, err := l.Accept()
		if err != nil {
			return nil
		}
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			handleConn(conn, opts)
		}()
	}
}

// terminate returns a channel that fires once on SIGINT or SIGTERM.
func terminate() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}

// reportUptime keeps the uptime gauge moving for as long as the process runs.
func reportUptime() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.SetUptime(float64(time.Now().Unix() - common.Started()))
	}
}

// canned is the fixed response the demo server writes back after every
// successful read from a connection, whatever the parser made of the
// request bytes, so the same bytes can be fed into the
// connection's response-direction Parser and produce a matched
// endpoint.RoundTrip without a second, independently observed socket.
const canned = "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\nContent-Length: 13\r\nConnection: close\r\n\r\nhello, wire!\n"

func handleConn(conn net.Conn, opts common.Options) {
	defer conn.Close()
	metrics.ConnectionOpened()
	defer metrics.ConnectionClosed()

	c := endpoint.New(endpoint.ProtocolHTTP, func(rt *endpoint.RoundTrip) {
		if summary, err := rt.Summary(); err == nil {
			logger.Infof("roundtrip connection=%s %s", rt.ConnectionID, summary)
		}
	}, opts)

	buf := make([]byte, common.ReadWriteBlockSize)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}
	if err := c.FeedRequest(zerocopy.NewBuffer(buf[:n])); err != nil {
		logger.Warnf("feed request: %v", err)
		return
	}

	if _, err := conn.Write([]byte(canned)); err != nil {
		return
	}
	if err := c.FeedResponse(zerocopy.NewBufferString(canned)); err != nil {
		logger.Warnf("feed response: %v", err)
	}
}
