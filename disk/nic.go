package disk

const NIC_TRACK_LENGTH = 0x2000
const NIC_SLOT_BYTES = 512

var NIC Container = &nibbleContainer{
	name:        "nic",
	description: "Apple II nibble image with 512 byte sector slots",
	extensions:  []string{"nic"},
	layout:      NIC_LAYOUT,
}
