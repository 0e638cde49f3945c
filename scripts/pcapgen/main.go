package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// pcapgen writes a synthetic capture where a few hosts exceed a given rate,
// for replay through pcap-analyzer.
func main() {
	outputFile := flag.String("o", "test.pcap", "Output pcap file path")
	hosts := flag.Int("hosts", 10, "Number of hosts")
	heavy := flag.Int("heavy", 1, "Number of hosts sending at the heavy rate")
	seconds := flag.Int("seconds", 60, "Capture duration in seconds")
	normalKB := flag.Int("normal-kb", 20, "Per-second volume of normal hosts in KB")
	heavyKB := flag.Int("heavy-kb", 300, "Per-second volume of heavy hosts in KB")
	flag.Parse()

	if *heavy > *hosts {
		log.Fatalf("heavy (%d) cannot exceed hosts (%d)", *heavy, *hosts)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gateway := net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
	start := time.Now().Truncate(time.Second)

	log.Printf("Generating %ds of traffic for %d hosts (%d heavy) into %s...", *seconds, *hosts, *heavy, *outputFile)

	written := 0
	for sec := 0; sec < *seconds; sec++ {
		for h := 0; h < *hosts; h++ {
			budget := *normalKB * 1024
			if h < *heavy {
				budget = *heavyKB * 1024
			}
			src := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, byte(h >> 8), byte(h)}
			ip := net.IP{10, 0, byte(h >> 8), byte(h)}

			for budget > 0 {
				payloadSize := rng.Intn(1400) + 50 // Random payload size between 50 and 1450
				data, err := buildFrame(src, gateway, ip, payloadSize)
				if err != nil {
					log.Fatalf("Failed to serialize layers: %v", err)
				}

				ci := gopacket.CaptureInfo{
					Timestamp:     start.Add(time.Duration(sec)*time.Second + time.Duration(rng.Int63n(int64(time.Second)))),
					CaptureLength: len(data),
					Length:        len(data),
				}
				if err := pcapWriter.WritePacket(ci, data); err != nil {
					log.Fatalf("Failed to write packet: %v", err)
				}
				budget -= len(data)
				written++
			}
		}
	}

	log.Printf("Successfully generated %d packets into %s.", written, *outputFile)
	fmt.Printf("Heavy hosts: 02:00:00:00:00:00 .. 02:00:00:00:%02x:%02x\n", (*heavy-1)>>8&0xff, (*heavy-1)&0xff)
}

func buildFrame(src, dst net.HardwareAddr, srcIP net.IP, payloadSize int) ([]byte, error) {
	ethLayer := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ipLayer := &layers.IPv4{
		SrcIP:    srcIP,
		DstIP:    net.IP{10, 255, 255, 254},
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
	}
	udpLayer := &layers.UDP{SrcPort: 40000, DstPort: 9}
	udpLayer.SetNetworkLayerForChecksum(ipLayer)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ethLayer, ipLayer, udpLayer, gopacket.Payload(make([]byte, payloadSize))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
