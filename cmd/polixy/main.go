// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-logr/logr"
	"github.com/golang/protobuf/proto"
	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/client-go/util/homedir"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/controller-runtime/pkg/manager/signals"

	pb "github.com/isabella232/polixy/pkg/api/polixy"
	"github.com/isabella232/polixy/pkg/index"
	"github.com/isabella232/polixy/pkg/k8s"
	"github.com/isabella232/polixy/pkg/server"
)

// drainGracePeriod bounds how long active streams may linger once a drain
// signal arrives.
const drainGracePeriod = 10 * time.Second

func main() {
	app := kingpin.New("polixy", "A policy resource prototype.")
	verbosity := app.Flag("v", "Logging verbosity").Default("0").Int()

	defaultKubeconfig := ""
	if home := homedir.HomeDir(); home != "" {
		defaultKubeconfig = filepath.Join(home, ".kube", "config")
	}

	controllerCmd := app.Command("controller", "Run the policy controller.")
	controllerPort := controllerCmd.Flag("port", "gRPC listen port").Short('p').Default("8910").Uint16()
	identityDomain := controllerCmd.Flag("identity-domain", "Domain under which identities are rendered").Default("cluster.local").String()
	kubeconfig := controllerCmd.Flag("kubeconfig", "Path to the kubeconfig file; in-cluster configuration is used when empty").Default(defaultKubeconfig).String()
	metricsAddr := controllerCmd.Flag("metrics-addr", "Address to serve /metrics and probe endpoints").Default(":9990").String()
	clusterNetworks := controllerCmd.Flag("cluster-networks", "CIDRs of the cluster's pod and node networks").
		Default("10.0.0.0/8", "100.64.0.0/10", "172.16.0.0/12", "192.168.0.0/16").Strings()
	defaultPolicy := controllerCmd.Flag("default-policy", "Default inbound policy for unselected pod ports").Default("all-unauthenticated").String()

	clientCmd := app.Command("client", "Inspect inbound configurations.")
	clientAddr := clientCmd.Flag("server", "Controller address").Default("127.0.0.1:8910").String()
	clientNs := clientCmd.Flag("namespace", "Pod namespace").Short('n').Default("default").String()
	watchCmd := clientCmd.Command("watch", "Stream a pod-port's configuration.")
	watchPod := watchCmd.Arg("pod", "Pod name").Required().String()
	watchPort := watchCmd.Arg("port", "Port number").Required().Uint16()
	getCmd := clientCmd.Command("get", "Print a pod-port's current configuration.")
	getPod := getCmd.Arg("pod", "Pod name").Required().String()
	getPort := getCmd.Arg("port", "Port number").Required().Uint16()

	crdsCmd := app.Command("crds", "Print the CustomResourceDefinitions the controller consumes.")

	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := zap.New(zap.Level(zapcore.Level(-*verbosity)))

	var err error
	switch cmd {
	case controllerCmd.FullCommand():
		mode, perr := index.ParseDefaultMode(*defaultPolicy)
		if perr != nil {
			logger.Error(perr, "invalid --default-policy")
			os.Exit(2)
		}
		err = runController(logger, controllerOptions{
			port:            *controllerPort,
			identityDomain:  *identityDomain,
			kubeconfig:      *kubeconfig,
			metricsAddr:     *metricsAddr,
			clusterNetworks: *clusterNetworks,
			defaultMode:     mode,
		})
	case watchCmd.FullCommand():
		err = runClient(*clientAddr, *clientNs, *watchPod, *watchPort, true)
	case getCmd.FullCommand():
		err = runClient(*clientAddr, *clientNs, *getPod, *getPort, false)
	case crdsCmd.FullCommand():
		err = printCRDs(os.Stdout)
	}
	if err != nil {
		logger.Error(err, "exit with error")
		os.Exit(1)
	}
}

type controllerOptions struct {
	port            uint16
	identityDomain  string
	kubeconfig      string
	metricsAddr     string
	clusterNetworks []string
	defaultMode     index.DefaultMode
}

func runController(logger logr.Logger, opts controllerOptions) error {
	ctx, cancel := context.WithCancel(signals.SetupSignalHandler())
	defer cancel()

	ix, err := index.New(index.Config{
		Log:             logger.WithName("index"),
		DefaultMode:     opts.defaultMode,
		ClusterNetworks: opts.clusterNetworks,
	})
	if err != nil {
		return err
	}

	clients, err := k8s.NewClients(opts.kubeconfig)
	if err != nil {
		return err
	}
	watcher := k8s.NewWatcher(logger.WithName("watch"), clients, ix.Events())

	registry := prometheus.NewRegistry()
	index.RegisterMetrics(registry)
	grpcMetrics := grpcprometheus.NewServerMetrics()
	registry.MustRegister(grpcMetrics)

	grpcServer := grpc.NewServer(
		grpc.StreamInterceptor(grpcMetrics.StreamServerInterceptor()),
		grpc.UnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
	)
	srv := server.New(logger.WithName("grpc"), ix, opts.identityDomain)
	srv.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", opts.port, err)
	}

	var g run.Group

	// Shut everything down once a signal arrives.
	g.Add(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	}, func(error) {
		cancel()
	})

	g.Add(func() error {
		watcher.WatchPods(ctx)
		return nil
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		watcher.WatchServers(ctx)
		return nil
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		watcher.WatchAuthorizations(ctx)
		return nil
	}, func(error) {
		cancel()
	})

	g.Add(func() error {
		return ix.Run(ctx)
	}, func(error) {
		cancel()
	})

	g.Add(func() error {
		logger.Info("gRPC server listening", "addr", listener.Addr().String())
		return grpcServer.Serve(listener)
	}, func(error) {
		srv.Drain()
		done := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(drainGracePeriod):
			grpcServer.Stop()
		}
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	httpServer := &http.Server{Addr: opts.metricsAddr, Handler: mux}
	g.Add(func() error {
		logger.Info("metrics server listening", "addr", opts.metricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), drainGracePeriod)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	})

	return g.Run()
}

func runClient(addr, ns, pod string, port uint16, follow bool) error {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	client := pb.NewProxyConfigServiceClient(conn)
	stream, err := client.WatchInbound(context.Background(), &pb.InboundProxyPort{
		Workload: ns + ":" + pod,
		Port:     uint32(port),
	})
	if err != nil {
		return err
	}

	for {
		cfg, err := stream.Recv()
		if err == io.EOF {
			fmt.Fprintln(os.Stderr, "stream closed")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(proto.MarshalTextString(cfg))
		if !follow {
			return nil
		}
	}
}
