package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"orderbook-aggregator/src/grpc_stream"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "aggregator server address")
	symbol := flag.String("symbol", "", "trading pair to stream (empty uses the server's default)")
	depth := flag.Int("depth", 0, "book depth to request (0 uses the server's default)")
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Printf("Error connecting to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	client := grpc_stream.NewOrderbookAggregatorClient(conn)
	stream, err := client.BookSummary(ctx, &grpc_stream.SummaryRequest{
		Symbol: *symbol,
		Depth:  uint32(*depth),
	})
	if err != nil {
		fmt.Printf("Error opening stream: %v\n", err)
		os.Exit(1)
	}

	for {
		summary, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Printf("Stream error: %v\n", err)
			os.Exit(1)
		}
		printSummary(summary)
	}
}

// printSummary renders one merged book as a console table, bids on the left
// and asks on the right, best levels first.
func printSummary(summary *grpc_stream.Summary) {
	if summary.GetSpread() != nil {
		fmt.Printf("Spread: %.8f\n", summary.GetSpread().GetValue())
	} else {
		fmt.Println("Spread: none")
	}

	fmt.Printf("%-5s %-10s %14s %14s | %-14s %14s %-10s\n",
		"Depth", "BidExchange", "BidVolume", "BidPrice", "AskPrice", "AskVolume", "AskExchange")

	rows := len(summary.GetBids())
	if len(summary.GetAsks()) > rows {
		rows = len(summary.GetAsks())
	}
	for i := 0; i < rows; i++ {
		bid := "" // left half stays blank when bids run out before asks
		if i < len(summary.GetBids()) {
			level := summary.GetBids()[i]
			bid = fmt.Sprintf("%-5d %-10s %14.8f %14.8f", i+1, level.GetExchange(), level.GetAmount(), level.GetPrice())
		} else {
			bid = fmt.Sprintf("%-5d %-10s %14s %14s", i+1, "", "", "")
		}

		ask := ""
		if i < len(summary.GetAsks()) {
			level := summary.GetAsks()[i]
			ask = fmt.Sprintf("%-14.8f %14.8f %-10s", level.GetPrice(), level.GetAmount(), level.GetExchange())
		}

		fmt.Printf("%s | %s\n", bid, ask)
	}
	fmt.Println(strings.Repeat("-", 96))
}
